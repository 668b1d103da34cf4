package driving

import "github.com/custodia-labs/pdfchat/internal/core/domain"

// SettingSource tells where an effective setting value came from.
type SettingSource string

// Setting sources in increasing precedence. Flags are applied by the CLI on top.
const (
	SourceDefault SettingSource = "default"
	SourceFile    SettingSource = "file"
	SourceEnv     SettingSource = "env"
)

// SettingEntry is one effective setting for display.
type SettingEntry struct {
	Key    string
	Value  string
	Source SettingSource
}

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns defaults overlaid with the config file and environment, validated.
	Get() (domain.Settings, error)

	// Set parses value for key, validates it and persists it.
	Set(key, value string) error

	// Unset removes a persisted key so the default applies again.
	Unset(key string) error

	// Entries lists every known key with its effective value. Secrets are masked.
	Entries() ([]SettingEntry, error)
}
