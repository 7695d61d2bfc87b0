package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/poiesic/enrich/core"
)

// ConfigFromEnv reads connection settings from ELASTIC_URL (comma
// separated), ELASTIC_CLOUD_ID, ELASTIC_USERNAME (default "elastic"),
// ELASTIC_CLOUD_PASSWORD and ELASTIC_API_KEY.
func ConfigFromEnv() *Config {
	c := &Config{
		CloudID:  os.Getenv("ELASTIC_CLOUD_ID"),
		Username: os.Getenv("ELASTIC_USERNAME"),
		Password: os.Getenv("ELASTIC_CLOUD_PASSWORD"),
		APIKey:   os.Getenv("ELASTIC_API_KEY"),
	}
	if c.Username == "" {
		c.Username = "elastic"
	}
	for _, addr := range strings.Split(os.Getenv("ELASTIC_URL"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			c.Addresses = append(c.Addresses, addr)
		}
	}
	return c
}

type bulkAction struct {
	Index struct {
		ID string `json:"_id,omitempty"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// Index writes docs to index with one bulk request and returns the number
// of documents accepted. A record's "_id" string becomes the document id
// and is left out of the stored source. Elements that are not objects are
// skipped.
func (b *Backend) Index(ctx context.Context, index string, docs []core.Record) (int, error) {
	if index == "" {
		return 0, errors.New("index name is required")
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	sent := 0
	for _, doc := range docs {
		if !doc.IsObject() {
			continue
		}
		var action bulkAction
		source := core.NewRecord()
		for _, key := range doc.Keys() {
			raw, _ := doc.Raw(key)
			if key == "_id" {
				_ = json.Unmarshal(raw, &action.Index.ID)
				continue
			}
			if err := source.Set(key, raw); err != nil {
				return 0, err
			}
		}
		if err := enc.Encode(action); err != nil {
			return 0, err
		}
		if err := enc.Encode(source); err != nil {
			return 0, err
		}
		sent++
	}
	if sent == 0 {
		return 0, nil
	}

	res, err := b.client.Bulk(&body,
		b.client.Bulk.WithContext(ctx),
		b.client.Bulk.WithIndex(index))
	if err != nil {
		return 0, b.transportError(ctx, err)
	}
	raw, err := readResponse(res)
	if err != nil {
		return 0, err
	}

	var parsed bulkResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, &core.BackendError{
			Backend: BackendName,
			Err:     fmt.Errorf("%w: decoding bulk response: %w", core.ErrBackendCall, err),
		}
	}

	indexed := 0
	var firstReason string
	for _, item := range parsed.Items {
		if item.Index.Error == nil && item.Index.Status < 300 {
			indexed++
			continue
		}
		if firstReason == "" && item.Index.Error != nil {
			firstReason = item.Index.Error.Type + ": " + item.Index.Error.Reason
		}
	}
	if rejected := len(parsed.Items) - indexed; rejected > 0 {
		return indexed, &core.BackendError{
			Backend: BackendName,
			Detail:  fmt.Sprintf("%d of %d documents rejected (%s)", rejected, len(parsed.Items), firstReason),
			Err:     core.ErrBackendCall,
		}
	}
	b.logger.Debug("bulk indexed", "index", index, "documents", indexed)
	return indexed, nil
}

// Refresh makes recently indexed documents visible to search.
func (b *Backend) Refresh(ctx context.Context, index string) error {
	res, err := b.client.Indices.Refresh(
		b.client.Indices.Refresh.WithContext(ctx),
		b.client.Indices.Refresh.WithIndex(index))
	if err != nil {
		return b.transportError(ctx, err)
	}
	_, err = readResponse(res)
	return err
}

func (b *Backend) transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &core.BackendError{
			Backend: BackendName,
			Err:     fmt.Errorf("%w: %w", core.ErrBackendCall, ctx.Err()),
		}
	}
	return &core.BackendError{
		Backend: BackendName,
		Detail:  err.Error(),
		Err:     core.ErrBackendUnavailable,
	}
}

// readResponse drains and closes res, mapping error statuses to a BackendError.
func readResponse(res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &core.BackendError{
			Backend: BackendName,
			Err:     fmt.Errorf("%w: reading response: %w", core.ErrBackendCall, err),
		}
	}
	if res.IsError() {
		return nil, &core.BackendError{
			Backend: BackendName,
			Detail:  strings.TrimSpace(res.Status() + " " + string(raw)),
			Err:     core.ErrBackendCall,
		}
	}
	return raw, nil
}
