// Package mock provides a test double for the ai.Generator interface.
//
// # Usage
//
//	gen := mock.NewMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "there was a castle", nil
//	}
//
//	// Check calls
//	count := gen.CallCount()
//	prompts := gen.Prompts()
//
// # Default Behavior
//
// Without a GenerateFunc the mock echoes the prompt back, followed by a
// fixed continuation. This mimics backends that repeat the prompt in their
// output.
package mock
