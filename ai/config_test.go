package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendProcess, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "llama3.2", cfg.Model)
	assert.Equal(t, "ollama", cfg.Executable)
	assert.Zero(t, cfg.MaxTokens)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, BackendProcess, cfg.Backend)
		assert.Equal(t, "llama3.2", cfg.Model)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithBackend(BackendHTTP),
			WithHost("http://custom:8080/v1"),
			WithModel("custom-model"),
			WithExecutable("/opt/bin/ollama"),
			WithMaxTokens(256),
		)

		assert.Equal(t, BackendHTTP, cfg.Backend)
		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "custom-model", cfg.Model)
		assert.Equal(t, "/opt/bin/ollama", cfg.Executable)
		assert.Equal(t, 256, cfg.MaxTokens)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		host        string
		backend     string
		wantHost    string
		wantBackend string
	}{
		{"adds v1 suffix", "http://localhost:11434", "http", "http://localhost:11434/v1", "http"},
		{"strips trailing slash", "http://localhost:11434/", "HTTP", "http://localhost:11434/v1", "http"},
		{"keeps existing suffix", "http://localhost:11434/v1", " process ", "http://localhost:11434/v1", "process"},
		{"leaves empty host", "", "process", "", "process"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host, Backend: tt.backend}
			cfg.Normalize()
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantBackend, cfg.Backend)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "valid default",
			cfg:  DefaultConfig(),
		},
		{
			name: "valid http",
			cfg:  NewConfig(WithBackend(BackendHTTP), WithHost("http://h:1")),
		},
		{
			name:    "missing model",
			cfg:     NewConfig(WithModel("")),
			wantErr: "Model is required",
		},
		{
			name:    "process without executable",
			cfg:     NewConfig(WithExecutable("")),
			wantErr: "Executable is required",
		},
		{
			name:    "http without host",
			cfg:     NewConfig(WithBackend(BackendHTTP), WithHost("")),
			wantErr: "Host is required",
		},
		{
			name:    "unknown backend",
			cfg:     NewConfig(WithBackend("grpc")),
			wantErr: "Backend must be one of",
		},
		{
			name:    "negative max tokens",
			cfg:     NewConfig(WithMaxTokens(-1)),
			wantErr: "MaxTokens cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateNormalizesHost(t *testing.T) {
	cfg := NewConfig(WithBackend(BackendHTTP), WithHost("http://localhost:11434"))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
}
