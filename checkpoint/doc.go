// Package checkpoint persists batch results as a single JSON document.
//
// FileSink rewrites the whole document atomically: the new content is
// written to a temporary file in the destination directory, synced, and
// renamed over the old document. A reader never observes a partially
// written file, and a failed write leaves the previous document in place.
//
// Checkpointer decides when the sink is invoked: after every record
// (PolicyEveryRecord) or only when the run finishes (PolicyAtEnd).
package checkpoint
