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
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Well-known record fields.
const (
	FieldPrompt           = "prompt"
	FieldText             = "text"
	FieldRetrievalDetails = "retrieval_details"
	FieldRetrievalError   = "retrieval_error"
	FieldCoverage         = "coverage"
)

// Mode names the kind of enrichment a run performs.
type Mode string

const (
	// ModeGenerate augments records with generated text.
	ModeGenerate Mode = "generate"
	// ModeRetrieve augments records with per-sentence retrieval results.
	ModeRetrieve Mode = "retrieve"
)

// DocDetail is the retrieval result for one sentence of a record's text.
type DocDetail struct {
	Query   string            `json:"query"`
	TopDocs []json.RawMessage `json:"top_docs"`
	// RetrievalRuntime is the elapsed query time in seconds (end - start).
	RetrievalRuntime float64 `json:"retrieval_runtime"`
}

// RunState is the journal entry describing the progress of one run.
type RunState struct {
	Id        ID
	Mode      Mode
	Input     string
	Output    string
	Cursor    int // index of the next record to process
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	StartedAt time.Time
	UpdatedAt time.Time
}

// RunID derives the journal key for a run from its mode and file paths.
func RunID(mode Mode, input, output string) ID {
	return IDFromContent(string(mode) + "\x00" + input + "\x00" + output)
}

// Done reports whether every record of the run has been committed.
func (s *RunState) Done() bool {
	return s.Total > 0 && s.Cursor >= s.Total
}
