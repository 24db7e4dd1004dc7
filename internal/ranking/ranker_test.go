package ranking

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/mieru/internal/config"
	"github.com/hyperjump/mieru/internal/embedding"
	"github.com/hyperjump/mieru/internal/models"
	"github.com/hyperjump/mieru/internal/store"
)

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{DefaultTopN: 4, Threshold: 0.28}
}

func topN(n int) *int { return &n }

// fixedProvider returns a preset vector for any text query.
type fixedProvider struct {
	vec []float32
	err error
}

func (p *fixedProvider) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	return p.vec, p.err
}
func (p *fixedProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return p.vec, p.err
}
func (p *fixedProvider) Dimensions() int { return len(p.vec) }
func (p *fixedProvider) Close() error    { return nil }

func savedStore(t *testing.T, records []models.Record) store.Store {
	t.Helper()
	s := store.NewJSONStore(filepath.Join(t.TempDir(), "index.json"))
	if err := s.Save(context.Background(), records); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRank_OrderAndScores(t *testing.T) {
	records := []models.Record{
		{Path: "a.png", Vector: []float32{1, 0}},
		{Path: "b.png", Vector: []float32{0, 1}},
		{Path: "c.png", Vector: []float32{0.7, 0.7}},
	}
	ranked := Rank(records, []float32{1, 0})
	if ranked[0].Path != "a.png" || ranked[1].Path != "c.png" || ranked[2].Path != "b.png" {
		t.Errorf("order: %s, %s, %s", ranked[0].Path, ranked[1].Path, ranked[2].Path)
	}
	if ranked[0].Score < 0.999 {
		t.Errorf("self-similarity: %v", ranked[0].Score)
	}
}

func TestRank_StableTieBreakBySnapshotOrder(t *testing.T) {
	records := []models.Record{
		{Path: "first.png", Vector: []float32{1, 0}},
		{Path: "second.png", Vector: []float32{2, 0}}, // same direction, same cosine
		{Path: "third.png", Vector: []float32{1, 0}},
	}
	ranked := Rank(records, []float32{1, 0})
	got := []string{ranked[0].Path, ranked[1].Path, ranked[2].Path}
	want := []string{"first.png", "second.png", "third.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tie-break order = %v, want %v", got, want)
	}
}

func TestRank_ZeroVectorRecordScoresZero(t *testing.T) {
	records := []models.Record{
		{Path: "zero.png", Vector: []float32{0, 0}},
		{Path: "neg.png", Vector: []float32{-1, 0}},
	}
	ranked := Rank(records, []float32{1, 0})
	if ranked[0].Path != "zero.png" || ranked[0].Score != 0 {
		t.Errorf("zero vector should score 0 and outrank negative scores: %+v", ranked[0])
	}
}

func TestSearch_ThresholdAndTopN(t *testing.T) {
	records := []models.Record{
		{Path: "exact.png", Vector: []float32{1, 0}},
		{Path: "close.png", Vector: []float32{0.9, 0.1}},
		{Path: "far.png", Vector: []float32{-1, 0}},
	}
	r := NewRanker(savedStore(t, records), &fixedProvider{vec: []float32{1, 0}}, testSearchConfig())

	resp, err := r.Search(context.Background(), &models.SearchQuery{Query: "red bike"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("matches = %d, want 2 (far.png below threshold)", len(resp.Matches))
	}
	if resp.Matches[0].Path != "exact.png" || resp.Matches[1].Path != "close.png" {
		t.Errorf("order: %v, %v", resp.Matches[0].Path, resp.Matches[1].Path)
	}
	for _, m := range resp.Matches {
		if m.Score < 0.28 {
			t.Errorf("match below threshold: %+v", m)
		}
	}
	if resp.Matches[0].Rank != 1 || resp.Matches[1].Rank != 2 {
		t.Errorf("ranks: %d, %d", resp.Matches[0].Rank, resp.Matches[1].Rank)
	}
	if resp.Best != nil {
		t.Error("diagnostic best should be absent when there are matches")
	}
}

func TestSearch_TopNCap(t *testing.T) {
	var records []models.Record
	for i := 0; i < 10; i++ {
		records = append(records, models.Record{Path: fmt.Sprintf("%d.png", i), Vector: []float32{1, 0}})
	}
	r := NewRanker(savedStore(t, records), &fixedProvider{vec: []float32{1, 0}}, testSearchConfig())

	resp, err := r.Search(context.Background(), &models.SearchQuery{Query: "q", TopN: topN(3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 3 {
		t.Errorf("matches = %d, want 3", len(resp.Matches))
	}
}

func TestSearch_TopNZeroOrNegativeYieldsEmptyWithoutError(t *testing.T) {
	records := []models.Record{{Path: "a.png", Vector: []float32{1, 0}}}
	r := NewRanker(savedStore(t, records), &fixedProvider{vec: []float32{1, 0}}, testSearchConfig())

	for _, n := range []int{0, -1} {
		resp, err := r.Search(context.Background(), &models.SearchQuery{Query: "q", TopN: topN(n)})
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Matches) != 0 {
			t.Errorf("top %d: matches = %d, want 0", n, len(resp.Matches))
		}
		if resp.Best != nil {
			t.Errorf("top %d: a.png cleared the threshold; no diagnostic best expected", n)
		}
	}
}

func TestSearch_NoMatchAboveThresholdReportsBest(t *testing.T) {
	records := []models.Record{
		{Path: "meh.png", Vector: []float32{0.15, float32(0.98868)}}, // cos ≈ 0.15 vs {1,0}
		{Path: "worse.png", Vector: []float32{-1, 0}},
	}
	r := NewRanker(savedStore(t, records), &fixedProvider{vec: []float32{1, 0}}, testSearchConfig())

	resp, err := r.Search(context.Background(), &models.SearchQuery{Query: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 0 {
		t.Fatalf("matches = %d, want 0", len(resp.Matches))
	}
	if resp.Best == nil {
		t.Fatal("diagnostic best should be reported")
	}
	if resp.Best.Path != "meh.png" {
		t.Errorf("best = %s, want meh.png", resp.Best.Path)
	}
	if resp.Best.Score < 0.14 || resp.Best.Score > 0.16 {
		t.Errorf("best score = %v, want ≈0.15", resp.Best.Score)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	var records []models.Record
	for i := 0; i < 20; i++ {
		records = append(records, models.Record{
			Path:   fmt.Sprintf("%d.png", i),
			Vector: []float32{float32(i%3) - 1, float32(i % 2), 0.5},
		})
	}
	r := NewRanker(savedStore(t, records), &fixedProvider{vec: []float32{0.2, 0.5, 0.8}}, testSearchConfig())
	ctx := context.Background()

	first, err := r.Search(ctx, &models.SearchQuery{Query: "q", TopN: topN(10)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Search(ctx, &models.SearchQuery{Query: "q", TopN: topN(10)})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Matches) != len(second.Matches) {
		t.Fatal("runs differ in length")
	}
	for i := range first.Matches {
		if first.Matches[i].Path != second.Matches[i].Path || first.Matches[i].Score != second.Matches[i].Score {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, first.Matches[i], second.Matches[i])
		}
	}
}

func TestSearch_ThresholdOverride(t *testing.T) {
	records := []models.Record{{Path: "far.png", Vector: []float32{0, 1}}}
	r := NewRanker(savedStore(t, records), &fixedProvider{vec: []float32{1, 0}}, testSearchConfig())

	th := -1.0
	resp, err := r.Search(context.Background(), &models.SearchQuery{Query: "q", Threshold: &th})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 1 {
		t.Errorf("with threshold -1 everything matches, got %d", len(resp.Matches))
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	r := NewRanker(savedStore(t, nil), &fixedProvider{vec: []float32{1}}, testSearchConfig())
	_, err := r.Search(context.Background(), &models.SearchQuery{Query: "q"})
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("got %v, want ErrEmptyCorpus", err)
	}
}

func TestSearch_StoreNotFound(t *testing.T) {
	s := store.NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	r := NewRanker(s, &fixedProvider{vec: []float32{1}}, testSearchConfig())
	_, err := r.Search(context.Background(), &models.SearchQuery{Query: "q"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want store.ErrNotFound", err)
	}
}

func TestSearch_QueryEmbeddingFailureIsFatal(t *testing.T) {
	records := []models.Record{{Path: "a.png", Vector: []float32{1}}}
	r := NewRanker(savedStore(t, records), &fixedProvider{err: errors.New("model down")}, testSearchConfig())
	if _, err := r.Search(context.Background(), &models.SearchQuery{Query: "q"}); err == nil {
		t.Error("query embedding failure must abort the search")
	}
}

func TestSearch_MockProviderEndToEndSelfMatch(t *testing.T) {
	p := embedding.NewMockProvider(16)
	ctx := context.Background()
	// Index the text embedding of "sunset" as if it were an image vector;
	// querying the same text must rank it first with similarity ≈ 1.
	target, err := p.EmbedText(ctx, "sunset")
	if err != nil {
		t.Fatal(err)
	}
	other, _ := p.EmbedText(ctx, "completely different")
	records := []models.Record{
		{Path: "a.png", Vector: target},
		{Path: "b.png", Vector: other},
	}
	th := -1.0
	r := NewRanker(savedStore(t, records), p, testSearchConfig())
	resp, err := r.Search(ctx, &models.SearchQuery{Query: "sunset", Threshold: &th})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Matches[0].Path != "a.png" {
		t.Errorf("self-match should rank first, got %s", resp.Matches[0].Path)
	}
	if resp.Matches[0].Score < 0.999 {
		t.Errorf("self-match score = %v, want ≈1", resp.Matches[0].Score)
	}
}
