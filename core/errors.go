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

package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	// ErrMissingField indicates a record lacks the field the active mode requires.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidRecord indicates an array element that is not a usable JSON object.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrBackendUnavailable indicates the backend process or service could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendCall indicates the backend was reached but the call failed.
	ErrBackendCall = errors.New("backend call failed")

	// ErrMalformedInput indicates the input file is missing or is not a JSON array.
	ErrMalformedInput = errors.New("malformed input")

	// ErrPersistence indicates the output document could not be written.
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidRunState indicates a journal entry failed validation.
	ErrInvalidRunState = errors.New("invalid run state")
)

// BackendError describes a failed call to an external backend.
type BackendError struct {
	// Backend is the display name of the backend, e.g. "Ollama" or "Elasticsearch".
	Backend string
	// Detail is the diagnostic reported by the backend (stderr, response body).
	Detail string
	// Err is ErrBackendUnavailable, ErrBackendCall, or a more specific cause.
	Err error
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Backend, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Diagnostic renders err as the text stored in a failed record.
//
//   - unreachable backend: "<Backend> Error: <Backend> not found"
//   - failed backend call: "<Backend> Error: <detail>"
//   - anything else:       "Error: <err>"
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) {
		if errors.Is(be.Err, ErrBackendUnavailable) {
			return fmt.Sprintf("%s Error: %s not found", be.Backend, be.Backend)
		}
		detail := strings.TrimSpace(be.Detail)
		if detail == "" {
			detail = be.Err.Error()
		}
		return fmt.Sprintf("%s Error: %s", be.Backend, detail)
	}
	return "Error: " + err.Error()
}
