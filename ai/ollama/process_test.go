package ollama

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script standing in for ollama.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-ollama")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestGenerator(t *testing.T, executable string) *ProcessGenerator {
	t.Helper()
	gen, err := newProcessGenerator(ai.NewConfig(
		ai.WithExecutable(executable),
		ai.WithModel("llama3.2"),
	))
	require.NoError(t, err)
	return gen
}

func TestProcessGenerator_Generate(t *testing.T) {
	// $1=run $2=model $3=prompt
	script := writeScript(t, `printf '%s|%s|%s' "$1" "$2" "$3"`)
	gen := newTestGenerator(t, script)

	out, err := gen.Generate(context.Background(), "Once upon a time")
	require.NoError(t, err)
	assert.Equal(t, "run|llama3.2|Once upon a time", out)
	assert.Equal(t, "Ollama", gen.Name())
}

func TestProcessGenerator_NonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "model not found" >&2; exit 1`)
	gen := newTestGenerator(t, script)

	_, err := gen.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendCall)
	assert.Equal(t, "Ollama Error: model not found", core.Diagnostic(err))
}

func TestProcessGenerator_MissingExecutable(t *testing.T) {
	gen := newTestGenerator(t, filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := gen.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
	assert.Equal(t, "Ollama Error: Ollama not found", core.Diagnostic(err))
}

func TestProcessGenerator_MissingFromPath(t *testing.T) {
	gen := newTestGenerator(t, "enrich-no-such-binary-on-path")

	_, err := gen.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

func TestProcessGenerator_ContextTimeout(t *testing.T) {
	script := writeScript(t, `exec sleep 5`)
	gen := newTestGenerator(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := gen.Generate(ctx, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNewProcessGenerator_InvalidConfig(t *testing.T) {
	_, err := NewProcessGenerator(ai.NewConfig(ai.WithExecutable("")))
	require.Error(t, err)
}
