package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".pdfchat", "config.toml"), store.Path())
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[model]
provider = "openai"
base_url = "http://localhost:8080/v1"
timeout_seconds = 60
requests_per_second = 1.5

[document]
chunk_size = 800
record_answers = true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("model.provider"))
	assert.Equal(t, "http://localhost:8080/v1", store.GetString("model.base_url"))
	assert.Equal(t, 60, store.GetInt("model.timeout_seconds"))
	assert.InDelta(t, 1.5, store.GetFloat("model.requests_per_second"), 1e-9)
	assert.InDelta(t, 60.0, store.GetFloat("model.timeout_seconds"), 1e-9)
	assert.Equal(t, 800, store.GetInt("document.chunk_size"))
	assert.True(t, store.GetBool("document.record_answers"))
	assert.Equal(t, []string{
		"document.chunk_size", "document.record_answers",
		"model.base_url", "model.provider", "model.requests_per_second", "model.timeout_seconds",
	}, store.Keys())
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("model.name", "llama3.2"))

	assert.Equal(t, 0, store.GetInt("model.name"))
	assert.Zero(t, store.GetFloat("model.name"))
	assert.False(t, store.GetBool("model.name"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("model.name", "mistral"))
	require.NoError(t, store.Set("document.chunk_size", 250))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[model]")
	assert.Contains(t, string(data), "[document]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "mistral", reloaded.GetString("model.name"))
	assert.Equal(t, 250, reloaded.GetInt("document.chunk_size"))
}

func TestConfigStore_Unset(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("model.name", "mistral"))
	require.NoError(t, store.Unset("model.name"))
	require.NoError(t, store.Unset("never.set"))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	_, ok := reloaded.Get("model.name")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("model.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("document.chunk_size", n)
			_ = store.GetInt("document.chunk_size")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("document.chunk_size")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"model.name":     "m",
		"model.provider": "ollama",
		"top":            true,
	})

	assert.Equal(t, map[string]any{
		"model": map[string]any{"name": "m", "provider": "ollama"},
		"top":   true,
	}, nested)
	assert.Equal(t, map[string]any{"model.name": "m", "model.provider": "ollama", "top": true}, flattenMap(nested, ""))
}

func TestNestMap_Clash(t *testing.T) {
	nested := nestMap(map[string]any{
		"model":      "plain",
		"model.name": "m",
	})

	assert.Equal(t, "plain", nested["model"])
	assert.Equal(t, "m", nested["model.name"])
}
