package textproc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// PunktSegmenter splits English text with the pretrained punkt model.
type PunktSegmenter struct {
	mu        sync.Mutex
	tokenizer *sentences.DefaultSentenceTokenizer
}

var _ Segmenter = (*PunktSegmenter)(nil)

// NewPunktSegmenter loads the English punkt model.
func NewPunktSegmenter() (*PunktSegmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading punkt model: %w", err)
	}
	return &PunktSegmenter{tokenizer: tokenizer}, nil
}

// Segment returns the sentences of text in order, trimmed, with empty
// sentences removed.
func (s *PunktSegmenter) Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	tokens := s.tokenizer.Tokenize(text)
	s.mu.Unlock()

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		sentence := strings.TrimSpace(tok.Text)
		if sentence == "" {
			continue
		}
		out = append(out, sentence)
	}
	return out
}
