package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompts seed the prompt directory and stand in for unreadable files.
var builtinPrompts = map[string]string{
	driven.PromptDocumentContext: domain.DefaultDocumentContextPrompt,
}

// PromptStore serves prompt templates from <dir>/<name>.txt.
// A file is re-read only when its modification time changes.
type PromptStore struct {
	dir string

	seedOnce sync.Once

	mu      sync.Mutex
	entries map[string]promptEntry
}

type promptEntry struct {
	text    string
	modTime time.Time
}

// NewPromptStore creates a prompt store rooted at dir, ~/.pdfchat/prompts when empty.
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{
		dir:     dir,
		entries: make(map[string]promptEntry),
	}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name.
// A missing or invalid file yields the built-in template when one exists.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	builtin, known := builtinPrompts[name]
	text, err := s.read(name)
	if err == nil {
		err = checkTemplate(text)
	}
	if err != nil {
		if known {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("prompt %s: %v, using the built-in one", name, err)
			}
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	return text, nil
}

// read returns the file contents, reusing the cached text while the file is unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	cached, ok := s.entries[name]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	s.mu.Lock()
	s.entries[name] = promptEntry{text: text, modTime: info.ModTime()}
	s.mu.Unlock()
	return text, nil
}

// seed writes the built-in templates that do not exist yet.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		logger.Debug("prompt directory: %v", err)
		return
	}
	for name, text := range builtinPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(text+"\n"), 0600); err != nil {
			logger.Debug("seed prompt %s: %v", name, err)
		}
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// checkTemplate rejects templates the chunk text cannot be placed into.
func checkTemplate(text string) error {
	if text == "" {
		return errors.New("empty template")
	}
	if n := strings.Count(text, "%s"); n > 1 {
		return fmt.Errorf("template has %d %%s placeholders, want at most one", n)
	}
	return nil
}
