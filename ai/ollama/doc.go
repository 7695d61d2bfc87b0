// Package ollama implements ai.Generator by running a local Ollama
// installation as a child process, one invocation per prompt.
package ollama
