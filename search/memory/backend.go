// Package memory implements search.Backend over an in-process document
// corpus. It needs no cluster, which makes it useful for dry runs and tests.
//
// Hits mimic Elasticsearch `hits.hits` entries so downstream tooling sees
// the same shape from either backend.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/search"
)

// BackendName is the display name used in diagnostics.
const BackendName = "Memory"

type document struct {
	id     string
	text   string
	source json.RawMessage
}

type hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Backend scores documents by query term overlap. Safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	indexes map[string][]document
}

var _ search.Backend = (*Backend)(nil)

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{indexes: make(map[string][]document)}
}

// Add indexes records under index. Records without a string "text" field
// are ignored. The document id is the record's "_id" or "id" string when
// present, else its position in the index.
func (b *Backend) Add(index string, records ...core.Record) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, r := range records {
		text, ok := r.String(core.FieldText)
		if !ok {
			continue
		}
		id, ok := r.String("_id")
		if !ok {
			id, ok = r.String("id")
		}
		if !ok {
			id = strconv.Itoa(len(b.indexes[index]))
		}
		source, err := json.Marshal(r)
		if err != nil {
			continue
		}
		b.indexes[index] = append(b.indexes[index], document{id: id, text: text, source: source})
		added++
	}
	return added
}

// LoadFile indexes a JSON array of documents from path under index.
func (b *Backend) LoadFile(path, index string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading corpus: %w", err)
	}
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("%w: corpus %s: %w", core.ErrMalformedInput, path, err)
	}
	return b.Add(index, records...), nil
}

// Name returns the backend display name.
func (b *Backend) Name() string {
	return BackendName
}

// Search returns up to topK documents sharing at least one term with query,
// best first. An empty index searches every index.
func (b *Backend) Search(ctx context.Context, query string, topK int, index string) ([]search.Hit, error) {
	if topK < 0 {
		return nil, search.ErrInvalidTopK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	var scored []hit
	for name, docs := range b.indexes {
		if index != "" && name != index {
			continue
		}
		for _, doc := range docs {
			score := search.Score(doc.text, query)
			if score == 0 {
				continue
			}
			scored = append(scored, hit{Index: name, ID: doc.id, Score: score, Source: doc.source})
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Index != scored[j].Index {
			return scored[i].Index < scored[j].Index
		}
		return scored[i].ID < scored[j].ID
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	hits := make([]search.Hit, 0, len(scored))
	for _, h := range scored {
		raw, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		hits = append(hits, raw)
	}
	return hits, nil
}
