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

// Package storage provides the storage abstraction layer for enrich's run
// journal.
//
// The journal records how far each batch run has progressed (its cursor and
// outcome counters) so an interrupted run can be inspected with `enrich
// status` and resumed against the checkpointed output document.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to keep callers decoupled from the
// backend:
//
//	journal, err := badger.NewJournalRepository(backend)  // returns storage.JournalRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Serialization
//
// Values are encoded with mus-go (see serialization.go). Times are stored as
// Unix microseconds in UTC.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
