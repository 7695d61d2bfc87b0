package batch

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrTransformRequired is returned when Run is called without a transform.
	ErrTransformRequired = errors.New("transform required")

	// ErrCheckpointerRequired is returned when a Runner is created without a checkpointer.
	ErrCheckpointerRequired = errors.New("checkpointer required")

	// ErrTransformPanic wraps a panic recovered from a transform.
	ErrTransformPanic = errors.New("transform panicked")

	// ErrResumeMismatch is returned when resumed results don't fit the input.
	ErrResumeMismatch = errors.New("resume state does not match input")
)
