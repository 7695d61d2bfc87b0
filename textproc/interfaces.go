package textproc

// Normalizer rewrites text into the form sent to the search backend.
type Normalizer interface {
	Normalize(text string) string
}

// Segmenter splits text into ordered, non-empty sentences.
type Segmenter interface {
	Segment(text string) []string
}
