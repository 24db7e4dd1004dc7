package embedding

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider produces embeddings via an OpenAI-compatible embeddings
// endpoint. For multimodal search it must point at a CLIP-style model served
// behind that API so that text and image vectors share a space; images are
// sent as base64 data URLs, the convention CLIP-serving gateways accept.
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	cache      *Cache
}

// NewOpenAIProvider creates a provider for the given model. apiKey must be
// non-empty; baseURL overrides the default OpenAI endpoint when set.
// cacheSize > 0 enables an LRU cache over query-text embeddings.
func NewOpenAIProvider(apiKey, baseURL, model string, dimensions, cacheSize int) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	p := &OpenAIProvider{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
	if cacheSize > 0 {
		p.cache = NewCache(cacheSize)
	}
	return p, nil
}

func (p *OpenAIProvider) embed(ctx context.Context, input string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{input},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contained no vector")
	}
	emb := resp.Data[0].Embedding
	if p.dimensions == 0 {
		p.dimensions = len(emb)
	}
	return emb, nil
}

// EmbedImage reads the file at path and embeds it as a base64 data URL.
func (p *OpenAIProvider) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	input := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return p.embed(ctx, input)
}

// EmbedText embeds the query text. Results are cached when a cache is configured.
func (p *OpenAIProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if p.cache != nil {
		if emb, ok := p.cache.Get(text); ok {
			return emb, nil
		}
	}
	emb, err := p.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.Set(text, emb)
	}
	return emb, nil
}

// Dimensions returns the embedding dimension. It is zero until configured or
// until the first successful embedding reveals it.
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op for OpenAIProvider.
func (p *OpenAIProvider) Close() error {
	return nil
}
