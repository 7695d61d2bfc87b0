package mock

import (
	"context"
	"sync"

	"github.com/poiesic/enrich/ai"
)

// DefaultContinuation is appended to the prompt by the default behavior.
const DefaultContinuation = " and then the story continued."

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, echoes the prompt followed by DefaultContinuation.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// BackendName is returned by Name. Defaults to "Mock".
	BackendName string

	mu      sync.Mutex
	prompts []string
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with default echo behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the prompt and returns the injected or default response.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return prompt + DefaultContinuation, nil
}

// Name returns the configured backend name.
func (m *MockGenerator) Name() string {
	if m.BackendName == "" {
		return "Mock"
	}
	return m.BackendName
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns the prompts received so far, in call order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears recorded calls and the custom function.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.GenerateFunc = nil
}
