package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/hyperjump/mieru/internal/vector"
)

// MockProvider is a deterministic provider for tests. It derives a
// fixed-dimension unit vector from a hash of the input so that the same
// input always gets the same embedding.
type MockProvider struct {
	dimensions int
	// Fail, when set, makes EmbedImage return an error for paths it
	// reports true on. Used to exercise per-item failure handling.
	Fail func(path string) bool
}

// NewMockProvider returns a provider producing deterministic embeddings of
// the given dimensions.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &MockProvider{dimensions: dimensions}
}

func (p *MockProvider) embed(input string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(input))
	seed := h.Sum32()
	emb := make([]float32, p.dimensions)
	for i := 0; i < p.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(seed)*float64(i+1))*0.1 + 0.01)
	}
	vector.NormalizeL2(emb)
	return emb
}

// EmbedImage returns a deterministic embedding derived from the path.
func (p *MockProvider) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	if p.Fail != nil && p.Fail(path) {
		return nil, fmt.Errorf("mock embedding failure for %s", path)
	}
	return p.embed("image:" + path), nil
}

// EmbedText returns a deterministic embedding derived from the text.
func (p *MockProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return p.embed("text:" + text), nil
}

// Dimensions returns the embedding dimension.
func (p *MockProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op for MockProvider.
func (p *MockProvider) Close() error {
	return nil
}
