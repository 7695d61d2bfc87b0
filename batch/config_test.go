package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.WordBudget)
	assert.Equal(t, 100, cfg.TopK)
	assert.Equal(t, 0, cfg.SubsetSize)
	assert.Equal(t, "sampled_redpajama", cfg.IndexName)
	assert.Equal(t, 1, cfg.MaxAttempts, "retry is opt-in")
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, CheckpointEveryRecord, cfg.Checkpoint)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrich.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
word_budget: 50
top_k: 10
call_timeout: 30s
max_attempts: 3
retry_delay: 250ms
workers: 4
checkpoint: end
`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.WordBudget)
	assert.Equal(t, 10, cfg.TopK)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, CheckpointAtEnd, cfg.Checkpoint)
	assert.Equal(t, "sampled_redpajama", cfg.IndexName, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("word_budget: [oops"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative budget", func(c *Config) { c.WordBudget = -1 }, "word_budget"},
		{"negative top_k", func(c *Config) { c.TopK = -1 }, "top_k"},
		{"negative subset", func(c *Config) { c.SubsetSize = -5 }, "subset_size"},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, "maxAttempts"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"bad policy", func(c *Config) { c.Checkpoint = "sometimes" }, "checkpoint"},
		{"negative timeout", func(c *Config) { c.CallTimeout = -time.Second }, "call_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCallPolicy_Do(t *testing.T) {
	t.Run("default makes one attempt", func(t *testing.T) {
		attempts := 0
		err := DefaultCallPolicy().Do(context.Background(), func(context.Context) error {
			attempts++
			return errors.New("fail")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries until success", func(t *testing.T) {
		attempts := 0
		p := CallPolicy{MaxAttempts: 3, RetryDelay: time.Millisecond}
		err := p.Do(context.Background(), func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("timeout applies per attempt", func(t *testing.T) {
		p := CallPolicy{Timeout: 20 * time.Millisecond, MaxAttempts: 1}
		err := p.Do(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("from config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CallTimeout = time.Second
		cfg.MaxAttempts = 2
		p := cfg.CallPolicy()
		assert.Equal(t, time.Second, p.Timeout)
		assert.Equal(t, 2, p.MaxAttempts)
		assert.Equal(t, cfg.RetryDelay, p.RetryDelay)
	})
}
