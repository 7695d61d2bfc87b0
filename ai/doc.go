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

// Package ai provides abstractions for the text generation service used by
// enrich.
//
// The package defines the Generator interface and its configuration. The
// batch engine depends only on Generator; it does not know whether text comes
// from a local process or a network API.
//
// # Implementation Packages
//
//   - ai/ollama: runs a local executable (`ollama run <model> <prompt>`) per prompt
//   - ai/openai: calls an OpenAI-compatible chat API through langchaingo
//   - ai/mock: test double for unit tests without external dependencies
//
// Public constructors (ollama.NewProcessGenerator, openai.NewGenerator)
// return the ai.Generator interface. The mock constructor returns the
// concrete type so tests can inject behavior and assert on call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithBackend(ai.BackendHTTP), ai.WithModel("llama3.2"))
//	gen, err := openai.NewGenerator(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := gen.Generate(ctx, "Once upon a time")
package ai
