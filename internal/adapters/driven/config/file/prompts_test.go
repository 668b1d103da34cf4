package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

func writePrompt(t *testing.T, dir, text string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, driven.PromptDocumentContext+".txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".pdfchat", "prompts"), store.Dir())
	_, statErr := os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(statErr), "nothing is written before the first Load")
}

func TestPromptStore_Load_SeedsBuiltins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDocumentContext)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDocumentContextPrompt, prompt)

	data, err := os.ReadFile(filepath.Join(dir, "document_context.txt"))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDocumentContextPrompt+"\n", string(data))
}

func TestPromptStore_Load_KeepsUserEdits(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "  Answer only from this excerpt: %s\n", time.Now())

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDocumentContext)
	require.NoError(t, err)
	assert.Equal(t, "Answer only from this excerpt: %s", prompt)
}

func TestPromptStore_Load_PicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	start := time.Now().Add(-time.Hour)
	writePrompt(t, dir, "first %s", start)

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDocumentContext)
	require.NoError(t, err)
	assert.Equal(t, "first %s", prompt)

	writePrompt(t, dir, "second %s", start.Add(time.Minute))

	prompt, err = store.Load(driven.PromptDocumentContext)
	require.NoError(t, err)
	assert.Equal(t, "second %s", prompt)
}

func TestPromptStore_Load_InvalidTemplateFallsBack(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", "   \n"},
		{"two placeholders", "%s and %s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writePrompt(t, dir, tt.text, time.Now())

			store, err := NewPromptStore(dir)
			require.NoError(t, err)

			prompt, err := store.Load(driven.PromptDocumentContext)
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultDocumentContextPrompt, prompt)
		})
	}
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("does_not_exist")
	assert.Error(t, err)
}

func TestPromptStore_Load_UnwritableDirUsesBuiltins(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDocumentContext)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDocumentContextPrompt, prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptDocumentContext)
			assert.NoError(t, err)
			assert.NotEmpty(t, prompt)
		}()
	}
	wg.Wait()
}
