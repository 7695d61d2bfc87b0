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

// Package batch runs a record transform over a collection of JSON records.
//
// Runner is the fault boundary of enrich: every record produces exactly one
// output record, in input order, no matter what the transform does. Errors
// and panics raised while transforming a record are converted by the
// transform's Fail method into a record carrying a diagnostic. Records that
// lack the transform's required field pass through unchanged.
//
// After each committed record the Runner hands the complete result prefix
// to a Checkpointer, updates the run journal, and advances the progress
// display. Cancelling the context stops the run after a final checkpoint of
// the records completed so far.
//
// # Backend Calls
//
// Transforms wrap each backend call in a CallPolicy, which applies the
// configured per-call timeout and retry with exponential backoff. The
// default policy makes a single attempt with no timeout.
//
// # Concurrency
//
// With Workers > 1 transforms run on an ants worker pool; results are still
// committed, checkpointed and journaled strictly in input order.
package batch
