// Package textproc prepares generated text for retrieval: a Normalizer folds
// it to ASCII and a Segmenter splits it into sentences.
package textproc
