package textproc

import "github.com/mozillazg/go-unidecode"

// Unidecode transliterates Unicode text to its closest ASCII form.
type Unidecode struct{}

var _ Normalizer = Unidecode{}

// Normalize returns the ASCII transliteration of text.
func (Unidecode) Normalize(text string) string {
	return unidecode.Unidecode(text)
}
