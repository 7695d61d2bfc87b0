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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/enrich"
	"github.com/poiesic/enrich/search"
	"github.com/poiesic/enrich/search/elastic"
	"github.com/poiesic/enrich/textproc"
)

var (
	corpus    = flag.String("corpus", "", "search this JSON corpus in memory instead of Elasticsearch")
	indexName = flag.String("index", "sampled_redpajama", "index to search")
	topK      = flag.Int("k", 5, "number of hits per sentence")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

type hit struct {
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source struct {
		Text string `json:"text"`
	} `json:"_source"`
}

// printHits queries backend once per sentence of text, the way a retrieval
// run does, and prints each sentence's hits.
func printHits(ctx context.Context, w io.Writer, backend search.Backend, segmenter textproc.Segmenter, text string) error {
	for _, sentence := range segmenter.Segment(textproc.Unidecode{}.Normalize(text)) {
		hits, err := backend.Search(ctx, sentence, *topK, *indexName)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%q: found %d hits\n", sentence, len(hits))
		for i, raw := range hits {
			var h hit
			if err := json.Unmarshal(raw, &h); err != nil {
				fmt.Fprintf(w, "%d: %s\n", i, raw)
				continue
			}
			fmt.Fprintf(w, "%d: '%s' (%s)[%0.3f]\n", i, h.Source.Text, h.ID, h.Score)
		}
	}
	return nil
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	config := enrich.SearchConfig{Corpus: *corpus}
	if *corpus == "" {
		config.Elastic = elastic.ConfigFromEnv()
	}
	backend, err := enrich.NewSearchBackend(config, *indexName)
	if err != nil {
		panic(err)
	}
	segmenter, err := textproc.NewPunktSegmenter()
	if err != nil {
		panic(err)
	}

	text := "The lantern swung in the wind."
	if flag.NArg() > 0 {
		text = strings.Join(flag.Args(), " ")
	}
	if err := printHits(context.Background(), os.Stdout, backend, segmenter, text); err != nil {
		panic(err)
	}
}
