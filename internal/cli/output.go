// Package cli provides output formatting for the mieru CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/mieru/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	writeSearchResultsText(w, response)
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	if len(response.Matches) == 0 {
		fmt.Fprintf(w, "No match above threshold %.2f (searched %d images in %dms)\n",
			response.Threshold, response.Total, response.QueryTime)
		if response.Best != nil {
			fmt.Fprintf(w, "Closest, below threshold: %s (score %.4f)\n",
				response.Best.Path, response.Best.Score)
		}
		return
	}
	fmt.Fprintf(w, "\nFound %d match(es) in %dms (searched %d images)\n\n",
		len(response.Matches), response.QueryTime, response.Total)
	for _, m := range response.Matches {
		fmt.Fprintf(w, "%2d. %.4f  %s\n", m.Rank, m.Score, m.Path)
	}
}

// WriteIndexStats writes indexing run stats to w in the given format.
func WriteIndexStats(w io.Writer, stats *models.IndexStats, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	if stats.EmptyRun {
		fmt.Fprintf(w, "No media files found under %s; snapshot unchanged\n", stats.Root)
		return nil
	}
	fmt.Fprintf(w, "Indexed %d of %d attempted (%d failed, %d discovered) in %s\n",
		stats.Indexed, stats.Attempted, stats.Failed, stats.Discovered, stats.Duration.Round(time.Millisecond))
	return nil
}
