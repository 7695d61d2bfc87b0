package generate

import "strings"

const (
	// SystemInstruction is the system turn of every wrapped prompt.
	SystemInstruction = "You are a creative writer who likes unconventional novels"

	// InstructionPrefix is a dataset convention; prompts starting with it are
	// echoed by some models without the prefix.
	InstructionPrefix = "Please write a few paragraphs for a novel starting with the following prompt: "
)

// BuildPrompt wraps prompt in the Llama 3 chat template.
func BuildPrompt(prompt string) string {
	return "<|begin_of_text|><|start_header_id|>system<|end_header_id|>" + SystemInstruction +
		"<|eot_id|><|start_header_id|>user<|end_header_id|>" + prompt +
		"<|eot_id|> <|start_header_id|>assistant<|end_header_id|>"
}

// StripEcho removes prompt from the start of output. InstructionPrefix is
// dropped from prompt before matching. When output starts with the prompt
// the remainder is returned trimmed; otherwise output is returned unchanged.
func StripEcho(output, prompt string) string {
	echo := strings.TrimPrefix(prompt, InstructionPrefix)
	rest, found := strings.CutPrefix(output, echo)
	if !found {
		return output
	}
	return strings.TrimSpace(rest)
}

// TrimToWords keeps the first n whitespace-separated words of text, joined
// by single spaces. Text with n words or fewer is returned unchanged.
func TrimToWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
