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

package storage

import (
	"context"

	"github.com/poiesic/enrich/core"
)

// JournalRepository persists the progress of batch runs.
type JournalRepository interface {
	// SaveRun inserts or replaces the state of a run.
	// The state is validated first and UpdatedAt is set to the current time.
	SaveRun(ctx context.Context, state *core.RunState) error

	// LoadRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	LoadRun(ctx context.Context, id core.ID) (*core.RunState, error)

	// ListRuns returns every recorded run, most recently updated first.
	ListRuns(ctx context.Context) ([]*core.RunState, error)

	// DeleteRun removes a run.
	// Returns ErrNotFound if the run doesn't exist.
	DeleteRun(ctx context.Context, id core.ID) error

	// Close releases resources held by the repository.
	Close() error
}
