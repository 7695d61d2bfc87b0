package ai

import "context"

// Generator produces text for a prompt. One call is one complete,
// non-streaming request/response exchange with the backend.
type Generator interface {
	// Generate returns the backend's raw output for prompt.
	// Failures are reported as *core.BackendError wrapping
	// core.ErrBackendUnavailable or core.ErrBackendCall.
	// Implementations must honor ctx cancellation and deadlines.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name is the display name used in diagnostics, e.g. "Ollama".
	Name() string
}
