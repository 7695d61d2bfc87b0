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

package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// BackendName is the display name used in diagnostics.
const BackendName = "OpenAI"

// Generator implements ai.Generator using an OpenAI-compatible chat API.
type Generator struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:    client,
		maxTokens: config.MaxTokens,
		logger:    slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Name returns the backend display name.
func (g *Generator) Name() string {
	return BackendName
}

// Generate sends prompt as a single human message and returns the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	var opts []llms.CallOption
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	response, err := g.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		g.logger.Debug("generation failed", "err", err)
		return "", classify(ctx, err)
	}
	if len(response.Choices) < 1 {
		return "", &core.BackendError{
			Backend: BackendName,
			Detail:  "no choices returned from model",
			Err:     core.ErrBackendCall,
		}
	}
	return response.Choices[0].Content, nil
}

// classify maps a client error onto the core backend error sentinels.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &core.BackendError{
			Backend: BackendName,
			Err:     fmt.Errorf("%w: %w", core.ErrBackendCall, ctx.Err()),
		}
	}
	var opErr *net.OpError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &urlErr) {
		return &core.BackendError{
			Backend: BackendName,
			Detail:  err.Error(),
			Err:     core.ErrBackendUnavailable,
		}
	}
	return &core.BackendError{
		Backend: BackendName,
		Detail:  err.Error(),
		Err:     core.ErrBackendCall,
	}
}
