// Package embedding produces vector embeddings for images and text in a
// shared coordinate space.
package embedding

import (
	"context"
	"errors"
)

// ErrAPIKeyRequired is returned when the OpenAI-compatible provider is
// selected but no API key is configured.
var ErrAPIKeyRequired = errors.New("embedding API key required")

// Provider produces embeddings for images and for query text. Both vectors
// must share the same dimensionality and coordinate space; the rest of the
// system trusts this without verification.
type Provider interface {
	EmbedImage(ctx context.Context, path string) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
