// Package elastic implements search.Backend with Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/search"
)

// BackendName is the display name used in diagnostics.
const BackendName = "Elasticsearch"

// Config holds connection settings. Either Addresses or CloudID is required.
type Config struct {
	Addresses []string
	CloudID   string
	Username  string
	Password  string
	APIKey    string
}

// Validate checks that a connection target is configured.
func (c *Config) Validate() error {
	if len(c.Addresses) == 0 && c.CloudID == "" {
		return errors.New("elastic config: Addresses or CloudID is required")
	}
	return nil
}

// Backend sends match queries over the "text" field.
type Backend struct {
	client *elasticsearch.Client
	logger *slog.Logger
}

var _ search.Backend = (*Backend)(nil)

// NewBackend creates a client for the configured cluster. No request is
// made until the first Search.
func NewBackend(config *Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		CloudID:   config.CloudID,
		Username:  config.Username,
		Password:  config.Password,
		APIKey:    config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &Backend{
		client: client,
		logger: slog.Default().With("component", "elastic-backend"),
	}, nil
}

// Name returns the backend display name.
func (b *Backend) Name() string {
	return BackendName
}

type matchQuery struct {
	Query struct {
		Bool struct {
			Must struct {
				Match struct {
					Text string `json:"text"`
				} `json:"match"`
			} `json:"must"`
		} `json:"bool"`
	} `json:"query"`
}

type searchResponse struct {
	Hits struct {
		Hits []json.RawMessage `json:"hits"`
	} `json:"hits"`
}

// Search runs `{"query":{"bool":{"must":{"match":{"text":query}}}}}` with
// size=topK and returns the raw `hits.hits` entries.
func (b *Backend) Search(ctx context.Context, query string, topK int, index string) ([]search.Hit, error) {
	if topK < 0 {
		return nil, search.ErrInvalidTopK
	}

	var body matchQuery
	body.Query.Bool.Must.Match.Text = query
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	opts := []func(*esapi.SearchRequest){
		b.client.Search.WithContext(ctx),
		b.client.Search.WithSize(topK),
		b.client.Search.WithBody(bytes.NewReader(payload)),
	}
	if index != "" {
		opts = append(opts, b.client.Search.WithIndex(index))
	}

	res, err := b.client.Search(opts...)
	if err != nil {
		return nil, b.transportError(ctx, err)
	}
	raw, err := readResponse(res)
	if err != nil {
		b.logger.Debug("search rejected", "index", index, "err", err)
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &core.BackendError{
			Backend: BackendName,
			Err:     fmt.Errorf("%w: decoding response: %w", core.ErrBackendCall, err),
		}
	}
	hits := parsed.Hits.Hits
	if hits == nil {
		hits = []json.RawMessage{}
	}
	return hits, nil
}
