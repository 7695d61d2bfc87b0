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

// Command seeder bulk-loads a document corpus into an Elasticsearch index
// for retrieval runs. The source is either a JSON array of documents or a
// plain text file with one document per line. Connection settings come from
// the environment (see elastic.ConfigFromEnv); a .env file is honored.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/dataset"
	"github.com/poiesic/enrich/search/elastic"
)

var (
	seedFileName = flag.String("src", "", "corpus file: JSON array of documents, or text with one document per line")
	indexName    = flag.String("index", "sampled_redpajama", "index to load")
	batchSize    = flag.Int("batch", 500, "documents per bulk request")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// docsFromFile returns an iterator over the documents in a corpus file.
func docsFromFile(filename string) (iter.Seq[core.Record], error) {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		records, err := dataset.Load(filename, 0)
		if err != nil {
			return nil, err
		}
		return func(yield func(core.Record) bool) {
			for _, r := range records {
				if !yield(r) {
					return
				}
			}
		}, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	return func(yield func(core.Record) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			doc := core.NewRecord()
			if err := doc.Set(core.FieldText, line); err != nil {
				continue
			}
			if !yield(doc) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("reading corpus", "file", filename, "err", err)
		}
	}, nil
}

type indexer interface {
	Index(ctx context.Context, index string, docs []core.Record) (int, error)
}

// indexBatched reads from a source iterator and indexes documents in batches.
func indexBatched(ctx context.Context, target indexer, index string, source iter.Seq[core.Record], batchSize int) (int, error) {
	batch := make([]core.Record, 0, batchSize)
	total := 0

	flush := func() error {
		n, err := target.Index(ctx, index, batch)
		total += n
		batch = batch[:0]
		return err
	}
	for doc := range source {
		batch = append(batch, doc)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
			slog.Info("indexed", "documents", total)
		}
	}

	// Index any remaining documents
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func run(ctx context.Context) error {
	if *seedFileName == "" {
		return errors.New("-src is required")
	}
	if *batchSize <= 0 {
		return fmt.Errorf("-batch must be greater than 0")
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	backend, err := elastic.NewBackend(elastic.ConfigFromEnv())
	if err != nil {
		return err
	}
	source, err := docsFromFile(*seedFileName)
	if err != nil {
		return err
	}

	total, err := indexBatched(ctx, backend, *indexName, source, *batchSize)
	if err != nil {
		return err
	}
	if err := backend.Refresh(ctx, *indexName); err != nil {
		return err
	}
	slog.Info("corpus loaded", "index", *indexName, "documents", total)
	return nil
}

func main() {
	flag.Parse()
	if err := run(context.Background()); err != nil {
		slog.Error("seeding failed", "err", err)
		os.Exit(1)
	}
}
