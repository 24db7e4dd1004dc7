// Package models defines core data structures for records, queries, and search results.
package models

import "time"

// Record is one indexed image: its source path and embedding vector.
// All records in a snapshot share the vector dimensionality of the embedding
// model that produced them; the store itself never validates this.
type Record struct {
	Path   string    `json:"path"`
	Vector []float32 `json:"vector"`
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	RunID      string        `json:"run_id"`
	Root       string        `json:"root"`
	Discovered int           `json:"discovered"`
	Attempted  int           `json:"attempted"`
	Indexed    int           `json:"indexed"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
	// EmptyRun is true when no media files were discovered and the
	// existing snapshot, if any, was left untouched.
	EmptyRun bool `json:"empty_run"`
}
