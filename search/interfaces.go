package search

import (
	"context"
	"encoding/json"
)

// Hit is one search result, kept as the backend returned it.
type Hit = json.RawMessage

// Backend answers text queries against a document index.
type Backend interface {
	// Search returns at most topK hits for query. An empty index searches
	// the backend's default scope.
	Search(ctx context.Context, query string, topK int, index string) ([]Hit, error)

	// Name returns the display name used in diagnostics.
	Name() string
}
