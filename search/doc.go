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

// Package search provides the retrieval side of enrich.
//
// A Backend answers one text query with up to topK opaque hits. Hits are
// passed through to the output document unchanged, so their shape is
// whatever the backend returns (Elasticsearch `hits.hits` entries for the
// bundled backends).
//
// Implementations:
//   - search/elastic: Elasticsearch match query over the "text" field
//   - search/memory: offline corpus scored by query term overlap
//
// CachedBackend decorates any Backend with an in-process result cache, and
// Monitor receives per-query callbacks for instrumentation.
package search
