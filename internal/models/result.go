package models

// Match is a single ranked hit: the record's path and its cosine similarity
// to the query. Derived, never persisted.
type Match struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// SearchResponse is the result of one search request.
type SearchResponse struct {
	Query   string   `json:"query"`
	Matches []*Match `json:"matches"`
	// Best carries the highest-scoring record when no match cleared the
	// threshold; it is diagnostic only and never counts as a match.
	Best      *Match  `json:"best_below_threshold,omitempty"`
	Threshold float64 `json:"threshold"`
	Total     int     `json:"total"`
	QueryTime int64   `json:"query_time_ms"`
}
