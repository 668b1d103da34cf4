package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyModelProvider    = "model.provider"
	KeyModelBaseURL     = "model.base_url"
	KeyModelAPIKey      = "model.api_key" //nolint:gosec // G101: key name, not a credential.
	KeyModelName        = "model.name"
	KeyModelTimeout     = "model.timeout_seconds"
	KeyModelMaxRetries  = "model.max_retries"
	KeyModelRequestRate = "model.requests_per_second"
	KeyModelBurst       = "model.burst"
	KeyChunkSize        = "document.chunk_size"
	KeyRecordAnswers    = "document.record_answers"
	KeyPreviewChars     = "document.preview_chars"
	KeyServerAddr       = "server.addr"
	KeyStoreTranscripts = "storage.transcripts"
	KeyStorageDataDir   = "storage.data_dir"
)

// Environment overrides.
const (
	EnvProvider   = "PDFCHAT_PROVIDER"
	EnvBaseURL    = "PDFCHAT_BASE_URL"
	EnvAPIKey     = "PDFCHAT_API_KEY" //nolint:gosec // G101: variable name, not a credential.
	EnvModel      = "PDFCHAT_MODEL"
	EnvOllamaHost = "OLLAMA_HOST"
)

const maskedSecret = "********"

const (
	settingKindString = "string"
	settingKindInt    = "integer"
	settingKindFloat  = "number"
	settingKindBool   = "boolean"
)

// settingDef describes one configurable key.
type settingDef struct {
	kind   string
	env    string
	secret bool
	get    func(*domain.Settings) any
	set    func(*domain.Settings, any)
}

var settingDefs = map[string]settingDef{
	KeyModelProvider: {
		kind: settingKindString, env: EnvProvider,
		get: func(s *domain.Settings) any { return s.Model.Provider.String() },
		set: func(s *domain.Settings, v any) { s.Model.Provider = domain.ModelProvider(v.(string)) },
	},
	KeyModelBaseURL: {
		kind: settingKindString, env: EnvBaseURL,
		get: func(s *domain.Settings) any { return s.Model.BaseURL },
		set: func(s *domain.Settings, v any) { s.Model.BaseURL = v.(string) },
	},
	KeyModelAPIKey: {
		kind: settingKindString, env: EnvAPIKey, secret: true,
		get: func(s *domain.Settings) any { return s.Model.APIKey },
		set: func(s *domain.Settings, v any) { s.Model.APIKey = v.(string) },
	},
	KeyModelName: {
		kind: settingKindString, env: EnvModel,
		get: func(s *domain.Settings) any { return s.Model.Name },
		set: func(s *domain.Settings, v any) { s.Model.Name = v.(string) },
	},
	KeyModelTimeout: {
		kind: settingKindInt,
		get:  func(s *domain.Settings) any { return int(s.Model.Timeout / time.Second) },
		set:  func(s *domain.Settings, v any) { s.Model.Timeout = time.Duration(v.(int)) * time.Second },
	},
	KeyModelMaxRetries: {
		kind: settingKindInt,
		get:  func(s *domain.Settings) any { return s.Model.MaxRetries },
		set:  func(s *domain.Settings, v any) { s.Model.MaxRetries = v.(int) },
	},
	KeyModelRequestRate: {
		kind: settingKindFloat,
		get:  func(s *domain.Settings) any { return s.Model.RequestsPerSecond },
		set:  func(s *domain.Settings, v any) { s.Model.RequestsPerSecond = v.(float64) },
	},
	KeyModelBurst: {
		kind: settingKindInt,
		get:  func(s *domain.Settings) any { return s.Model.Burst },
		set:  func(s *domain.Settings, v any) { s.Model.Burst = v.(int) },
	},
	KeyChunkSize: {
		kind: settingKindInt,
		get:  func(s *domain.Settings) any { return s.Document.ChunkSize },
		set:  func(s *domain.Settings, v any) { s.Document.ChunkSize = v.(int) },
	},
	KeyRecordAnswers: {
		kind: settingKindBool,
		get:  func(s *domain.Settings) any { return s.Document.RecordAnswers },
		set:  func(s *domain.Settings, v any) { s.Document.RecordAnswers = v.(bool) },
	},
	KeyPreviewChars: {
		kind: settingKindInt,
		get:  func(s *domain.Settings) any { return s.Document.PreviewChars },
		set:  func(s *domain.Settings, v any) { s.Document.PreviewChars = v.(int) },
	},
	KeyServerAddr: {
		kind: settingKindString,
		get:  func(s *domain.Settings) any { return s.Server.Addr },
		set:  func(s *domain.Settings, v any) { s.Server.Addr = v.(string) },
	},
	KeyStoreTranscripts: {
		kind: settingKindBool,
		get:  func(s *domain.Settings) any { return s.Storage.Transcripts },
		set:  func(s *domain.Settings, v any) { s.Storage.Transcripts = v.(bool) },
	},
	KeyStorageDataDir: {
		kind: settingKindString,
		get:  func(s *domain.Settings) any { return s.Storage.DataDir },
		set:  func(s *domain.Settings, v any) { s.Storage.DataDir = v.(string) },
	},
}

// SettingsService resolves settings from defaults, the config store and the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SettingKeys returns every configurable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingDefs))
	for k := range settingDefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	settings, _, err := s.resolve()
	if err != nil {
		return domain.Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// resolve overlays the sources and records where each key came from.
func (s *SettingsService) resolve() (domain.Settings, map[string]driving.SettingSource, error) {
	settings := domain.DefaultSettings()
	sources := make(map[string]driving.SettingSource, len(settingDefs))

	for _, key := range SettingKeys() {
		def := settingDefs[key]
		sources[key] = driving.SourceDefault
		if _, ok := s.configStore.Get(key); ok {
			def.set(&settings, s.stored(key, def.kind))
			sources[key] = driving.SourceFile
		}
	}

	for _, key := range SettingKeys() {
		def := settingDefs[key]
		if def.env == "" {
			continue
		}
		raw, ok := s.lookupEnv(def.env)
		if !ok || raw == "" {
			continue
		}
		value, err := parseSetting(def.kind, raw)
		if err != nil {
			return settings, sources, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfiguration, def.env, err)
		}
		def.set(&settings, value)
		sources[key] = driving.SourceEnv
	}

	// Ollama's own variable counts for the Ollama provider unless PDFCHAT_BASE_URL is set.
	if host, ok := s.lookupEnv(EnvOllamaHost); ok && host != "" &&
		sources[KeyModelBaseURL] != driving.SourceEnv &&
		settings.Model.Provider == domain.ModelProviderOllama {
		settings.Model.BaseURL = host
		sources[KeyModelBaseURL] = driving.SourceEnv
	}

	return settings, sources, nil
}

// stored reads a persisted value with the type the key expects.
func (s *SettingsService) stored(key, kind string) any {
	switch kind {
	case settingKindInt:
		return s.configStore.GetInt(key)
	case settingKindFloat:
		return s.configStore.GetFloat(key)
	case settingKindBool:
		return s.configStore.GetBool(key)
	default:
		return s.configStore.GetString(key)
	}
}

// Set parses value for key, validates it against the other settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := settingDefs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)",
			domain.ErrInvalidInput, key, strings.Join(SettingKeys(), ", "))
	}

	parsed, err := parseSetting(def.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfiguration, key, err)
	}

	candidate, _, err := s.resolve()
	if err != nil {
		return err
	}
	def.set(&candidate, parsed)
	if err := candidate.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Unset removes a persisted key.
func (s *SettingsService) Unset(key string) error {
	if _, ok := settingDefs[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return s.configStore.Unset(key)
}

// Entries lists every known key with its effective value.
func (s *SettingsService) Entries() ([]driving.SettingEntry, error) {
	settings, sources, err := s.resolve()
	if err != nil {
		return nil, err
	}

	entries := make([]driving.SettingEntry, 0, len(settingDefs))
	for _, key := range SettingKeys() {
		def := settingDefs[key]
		value := fmt.Sprint(def.get(&settings))
		if def.secret && value != "" {
			value = maskedSecret
		}
		entries = append(entries, driving.SettingEntry{Key: key, Value: value, Source: sources[key]})
	}
	return entries, nil
}

// parseSetting converts raw text to the Go type stored for kind.
func parseSetting(kind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case settingKindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected an %s, got %q", kind, raw)
		}
		return n, nil
	case settingKindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a %s, got %q", kind, raw)
		}
		return f, nil
	case settingKindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a %s, got %q", kind, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}
