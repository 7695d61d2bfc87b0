package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("A dragon flew")
	assert.Equal(t,
		"<|begin_of_text|><|start_header_id|>system<|end_header_id|>"+
			"You are a creative writer who likes unconventional novels"+
			"<|eot_id|><|start_header_id|>user<|end_header_id|>A dragon flew"+
			"<|eot_id|> <|start_header_id|>assistant<|end_header_id|>",
		got)
}

func TestStripEcho(t *testing.T) {
	tests := []struct {
		name   string
		output string
		prompt string
		want   string
	}{
		{"echoed prompt removed", "Once upon a time there was a castle", "Once upon a time", "there was a castle"},
		{"instruction prefix ignored when matching",
			"A dragon flew over the mountains",
			InstructionPrefix + "A dragon flew",
			"over the mountains"},
		{"no echo leaves output unchanged", "The castle stood", "Once upon a time", "The castle stood"},
		{"output equal to prompt", "Once upon a time", "Once upon a time", ""},
		{"prefix must match at start", "and Once upon a time", "Once upon a time", "and Once upon a time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripEcho(tt.output, tt.prompt))
		})
	}
}

func TestTrimToWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"truncates", "The quick brown fox jumps", 3, "The quick brown"},
		{"collapses whitespace when truncating", "The  quick\n\tbrown fox", 2, "The quick"},
		{"under budget unchanged", "The  quick", 3, "The  quick"},
		{"exactly budget unchanged", "a b c", 3, "a b c"},
		{"zero budget", "a b", 0, ""},
		{"empty text", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimToWords(tt.text, tt.n)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(strings.Fields(got)), tt.n)
		})
	}
}
