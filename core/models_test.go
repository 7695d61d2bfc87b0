package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestRunID(t *testing.T) {
	a := RunID(ModeGenerate, "in.json", "out.json")
	if a != RunID(ModeGenerate, "in.json", "out.json") {
		t.Errorf("RunID() not deterministic")
	}
	if a == RunID(ModeRetrieve, "in.json", "out.json") {
		t.Errorf("RunID() ignores mode")
	}
	// the separator keeps path boundaries distinct
	if RunID(ModeGenerate, "ab", "c") == RunID(ModeGenerate, "a", "bc") {
		t.Errorf("RunID() collides across path boundaries")
	}
}

func TestRunState_Done(t *testing.T) {
	tests := []struct {
		name  string
		state RunState
		want  bool
	}{
		{"empty run", RunState{}, false},
		{"in progress", RunState{Cursor: 2, Total: 5}, false},
		{"complete", RunState{Cursor: 5, Total: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Done(); got != tt.want {
				t.Errorf("Done() = %v, want %v", got, tt.want)
			}
		})
	}
}
