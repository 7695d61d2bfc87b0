// Package openai implements ai.Generator against OpenAI-compatible chat
// completion APIs (Ollama's /v1 endpoint, LocalAI, vLLM) using langchaingo.
package openai
