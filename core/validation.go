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

import "fmt"

// RequireField checks that a record is a JSON object carrying the named field.
//
// Validation rules:
//   - the record must be a JSON object
//   - the field must be present (any JSON value, including null)
//
// The type of the value is not validated here; transforms reject values they
// cannot use.
func RequireField(record Record, field string) error {
	if !record.IsObject() {
		return fmt.Errorf("%w: element is not a JSON object", ErrInvalidRecord)
	}
	if !record.Has(field) {
		return fmt.Errorf("%w: %q", ErrMissingField, field)
	}
	return nil
}

// ValidateRunState validates a journal entry before it is persisted.
func ValidateRunState(state *RunState) error {
	if state == nil {
		return fmt.Errorf("%w: run state is nil", ErrInvalidRunState)
	}
	if state.Mode != ModeGenerate && state.Mode != ModeRetrieve {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRunState, state.Mode)
	}
	if state.Cursor < 0 || state.Total < 0 {
		return fmt.Errorf("%w: negative cursor or total", ErrInvalidRunState)
	}
	if state.Cursor > state.Total {
		return fmt.Errorf("%w: cursor %d beyond total %d", ErrInvalidRunState, state.Cursor, state.Total)
	}
	if state.Succeeded+state.Failed+state.Skipped > state.Cursor {
		return fmt.Errorf("%w: counters exceed cursor", ErrInvalidRunState)
	}
	return nil
}
