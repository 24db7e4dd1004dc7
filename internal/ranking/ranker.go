// Package ranking scores snapshot records against a query embedding and
// selects the best matches.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/mieru/internal/config"
	"github.com/hyperjump/mieru/internal/embedding"
	"github.com/hyperjump/mieru/internal/models"
	"github.com/hyperjump/mieru/internal/store"
	"github.com/hyperjump/mieru/internal/vector"
)

// ErrEmptyCorpus is returned when the snapshot loads successfully but holds
// zero records. Distinct from store.ErrNotFound.
var ErrEmptyCorpus = errors.New("snapshot holds no records")

// Ranker answers search queries against the persisted snapshot.
type Ranker struct {
	store    store.Store
	provider embedding.Provider
	config   *config.SearchConfig
}

// NewRanker creates a ranker with the given dependencies. The provider is
// shared, caller-owned, and not closed by the ranker.
func NewRanker(s store.Store, provider embedding.Provider, cfg *config.SearchConfig) *Ranker {
	return &Ranker{
		store:    s,
		provider: provider,
		config:   cfg,
	}
}

// Search loads the snapshot, embeds the query text, and returns the top
// matches at or above the threshold. Exactly two failures abort a search:
// the snapshot being unloadable (store.ErrNotFound, store.ErrCorrupt,
// ErrEmptyCorpus) and the query embedding failing. When no record clears
// the threshold the response has no matches and Best carries the
// highest-scoring record as a diagnostic.
func (r *Ranker) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := query.Validate(r.config.DefaultTopN, r.config.Threshold); err != nil {
		return nil, err
	}

	records, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}

	queryVec, err := r.provider.EmbedText(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ranked := Rank(records, queryVec)
	threshold := *query.Threshold
	topN := *query.TopN

	resp := &models.SearchResponse{
		Query:     query.Query,
		Matches:   []*models.Match{},
		Threshold: threshold,
		Total:     len(records),
	}
	cleared := 0
	for _, m := range ranked {
		if m.Score < threshold {
			break
		}
		cleared++
		if topN <= 0 || len(resp.Matches) >= topN {
			continue
		}
		m.Rank = len(resp.Matches) + 1
		resp.Matches = append(resp.Matches, m)
	}
	// Diagnostic only when nothing cleared the threshold, never when the
	// caller's cap emptied the list.
	if cleared == 0 {
		resp.Best = ranked[0]
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// Rank scores every record against queryVec and returns all matches sorted
// by descending score. The sort is stable so records with identical scores
// keep snapshot order, making output deterministic for identical inputs.
func Rank(records []models.Record, queryVec []float32) []*models.Match {
	matches := make([]*models.Match, len(records))
	for i, rec := range records {
		matches[i] = &models.Match{
			Path:  rec.Path,
			Score: vector.CosineSimilarity(queryVec, rec.Vector),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}
