// Package retrieve implements the retrieval transform: a record's "text" is
// transliterated to ASCII, split into sentences, and each sentence is sent
// to a search.Backend. The per-sentence results are stored in
// "retrieval_details".
package retrieve
