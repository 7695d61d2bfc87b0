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


package ai

import (
	"errors"
	"strings"
)

// Backend kinds understood by NewConfig and the command line.
const (
	// BackendProcess runs a local executable once per prompt.
	BackendProcess = "process"
	// BackendHTTP calls an OpenAI-compatible chat completion API.
	BackendHTTP = "http"
)

// Config holds configuration for the text generation backend.
type Config struct {
	// Backend selects the implementation: BackendProcess or BackendHTTP.
	Backend string

	// Host is the base URL for the generation service API (BackendHTTP only).
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	Host string

	// Model is the model identifier to generate with.
	// Example: "llama3.2", "gpt-4o-mini"
	Model string

	// Executable is the program run for each prompt (BackendProcess only).
	// It is invoked as `<Executable> run <Model> <prompt>`.
	Executable string

	// MaxTokens caps the length of a completion (BackendHTTP only).
	// Zero leaves the server default in place.
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the backend kind.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithHost sets the generation service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithExecutable sets the program used by the process backend.
func WithExecutable(executable string) ConfigOption {
	return func(c *Config) {
		c.Executable = executable
	}
}

// WithMaxTokens sets the completion length cap for the HTTP backend.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config that runs a local Ollama installation.
func DefaultConfig() *Config {
	return &Config{
		Backend:    BackendProcess,
		Host:       "http://localhost:11434/v1",
		Model:      "llama3.2",
		Executable: "ollama",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithBackend(BackendHTTP),
//       WithHost("http://gpu-box:11434"),
//       WithModel("llama3.1:8b"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It lowercases the backend kind and adds the /v1 suffix to the host if
// missing, which is required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	switch c.Backend {
	case BackendProcess:
		if c.Executable == "" {
			return errors.New("ai config: Executable is required for the process backend")
		}
	case BackendHTTP:
		if c.Host == "" {
			return errors.New("ai config: Host is required for the http backend")
		}
	default:
		return errors.New("ai config: Backend must be one of process, http")
	}
	if c.MaxTokens < 0 {
		return errors.New("ai config: MaxTokens cannot be negative")
	}
	return nil
}
