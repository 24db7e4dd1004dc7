package embedding

import (
	"fmt"
	"os"

	"github.com/hyperjump/mieru/internal/config"
)

// NewProvider builds the embedding provider selected by cfg. The returned
// provider is meant to be constructed once and shared by the indexer and
// the search path for the lifetime of the process.
func NewProvider(cfg *config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "mock":
		return NewMockProvider(cfg.Dimensions), nil
	case "onnx":
		return NewONNXProvider(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "openai":
		apiKey := os.Getenv(cfg.APIKeyEnv)
		return NewOpenAIProvider(apiKey, cfg.BaseURL, cfg.Model, cfg.Dimensions, cfg.CacheSize)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
