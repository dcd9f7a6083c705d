package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFileSystem implements FileSystem for testing
type mockFileSystem struct {
	homeDir    string
	homeErr    error
	files      map[string][]byte
	readErrors map[string]error
}

func (m *mockFileSystem) UserHomeDir() (string, error) {
	if m.homeErr != nil {
		return "", m.homeErr
	}
	return m.homeDir, nil
}

func (m *mockFileSystem) ReadFile(path string) ([]byte, error) {
	if err, ok := m.readErrors[path]; ok {
		return nil, err
	}
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, os.ErrNotExist
}

func configPath(home string) string {
	return filepath.Join(home, ".config", ConfigDir, ConfigFile)
}

func TestLoad_NoConfigFileReturnsDefaults(t *testing.T) {
	loader := NewLoaderWithFS(&mockFileSystem{homeDir: "/home/test"})

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_HomeDirErrorReturnsDefaults(t *testing.T) {
	loader := NewLoaderWithFS(&mockFileSystem{homeErr: errors.New("no home")})

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_DotfileOverridesDefaults(t *testing.T) {
	home := "/home/test"
	fs := &mockFileSystem{
		homeDir: home,
		files: map[string][]byte{
			configPath(home): []byte(`{
				"provider": {"name": "openai", "model": "gpt-4o", "base_url": "https://example.com/v1"},
				"assistant": {"stream": false, "context_limit": 20}
			}`),
		},
	}

	cfg, err := NewLoaderWithFS(fs).Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
	assert.Equal(t, "https://example.com/v1", cfg.Provider.BaseURL)
	assert.False(t, cfg.Assistant.Stream)
	assert.Equal(t, 20, cfg.Assistant.ContextLimit)

	// Missing keys keep their defaults.
	assert.Equal(t, "You are a helpful assistant.", cfg.Assistant.SystemPrompt)
}

func TestLoad_MalformedJSON(t *testing.T) {
	home := "/home/test"
	fs := &mockFileSystem{
		homeDir: home,
		files:   map[string][]byte{configPath(home): []byte(`{"provider":`)},
	}

	_, err := NewLoaderWithFS(fs).Load()
	require.Error(t, err)
}

func TestLoad_PermissionErrorSurfaces(t *testing.T) {
	home := "/home/test"
	fs := &mockFileSystem{
		homeDir:    home,
		readErrors: map[string]error{configPath(home): os.ErrPermission},
	}

	_, err := NewLoaderWithFS(fs).Load()
	require.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	home := "/home/test"
	fs := &mockFileSystem{
		homeDir: home,
		files: map[string][]byte{
			configPath(home): []byte(`{"provider": {"name": "anthropic", "model": "claude"}}`),
		},
	}

	_, err := NewLoaderWithFS(fs).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.name")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider.Name = "llamacpp" },
			wantErr: "provider.name",
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.Provider.Model = "" },
			wantErr: "provider.model",
		},
		{
			name:    "negative context limit",
			mutate:  func(c *Config) { c.Assistant.ContextLimit = -1 },
			wantErr: "context_limit",
		},
		{
			name:    "negative max steps",
			mutate:  func(c *Config) { c.Assistant.MaxSteps = -5 },
			wantErr: "max_steps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.Name = "nope"
	cfg.Provider.Model = ""
	cfg.Assistant.ContextLimit = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.name")
	assert.Contains(t, err.Error(), "provider.model")
	assert.Contains(t, err.Error(), "context_limit")
}
