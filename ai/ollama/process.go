// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ollama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/core"
)

// BackendName is the display name used in diagnostics.
const BackendName = "Ollama"

// waitDelay bounds how long Generate waits for output pipes after the
// process is killed.
const waitDelay = 2 * time.Second

// ProcessGenerator runs `<executable> run <model> <prompt>` and returns
// the process's standard output.
type ProcessGenerator struct {
	executable string
	model      string
	logger     *slog.Logger
}

func newProcessGenerator(config *ai.Config) (*ProcessGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ProcessGenerator{
		executable: config.Executable,
		model:      config.Model,
		logger:     slog.Default().With("component", "ollama-generator"),
	}, nil
}

// NewProcessGenerator creates a generator backed by a local executable.
//
// Returns ai.Generator interface to enforce abstraction.
func NewProcessGenerator(config *ai.Config) (ai.Generator, error) {
	return newProcessGenerator(config)
}

// Name returns the backend display name.
func (g *ProcessGenerator) Name() string {
	return BackendName
}

// Generate runs the executable once. Cancelling ctx kills the process.
func (g *ProcessGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.executable, "run", g.model, prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	g.logger.Debug("process failed", "executable", g.executable, "err", err)

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return "", &core.BackendError{
			Backend: BackendName,
			Detail:  err.Error(),
			Err:     core.ErrBackendUnavailable,
		}
	}
	if ctx.Err() != nil {
		return "", &core.BackendError{
			Backend: BackendName,
			Err:     fmt.Errorf("%w: %w", core.ErrBackendCall, ctx.Err()),
		}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = exitErr.Error()
		}
		return "", &core.BackendError{
			Backend: BackendName,
			Detail:  detail,
			Err:     core.ErrBackendCall,
		}
	}
	return "", &core.BackendError{
		Backend: BackendName,
		Err:     fmt.Errorf("%w: %w", core.ErrBackendCall, err),
	}
}
