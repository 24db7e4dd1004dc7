package models

import "fmt"

// SearchQuery represents one search request against the snapshot.
type SearchQuery struct {
	Query string `json:"query"`
	// TopN caps the number of matches returned. Nil means "use the
	// configured default"; values of zero or less yield an empty match list.
	TopN *int `json:"top_n,omitempty"`
	// Threshold is the minimum cosine similarity for a match. Nil means
	// "use the configured default".
	Threshold *float64 `json:"threshold,omitempty"`
}

// Validate ensures the query has valid fields and applies the given defaults.
// Returns an error if the query text is empty.
func (q *SearchQuery) Validate(defaultTopN int, defaultThreshold float64) error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopN == nil {
		n := defaultTopN
		q.TopN = &n
	}
	if q.Threshold == nil {
		t := defaultThreshold
		q.Threshold = &t
	}
	return nil
}
