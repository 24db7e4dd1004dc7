package embedding

import (
	"errors"
	"testing"

	"github.com/hyperjump/mieru/internal/config"
)

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(&config.EmbeddingConfig{Provider: "mock", Dimensions: 16})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if p.Dimensions() != 16 {
		t.Errorf("dimensions = %d, want 16", p.Dimensions())
	}
}

func TestNewProvider_OpenAIWithoutKey(t *testing.T) {
	t.Setenv("MIERU_TEST_NO_KEY", "")
	_, err := NewProvider(&config.EmbeddingConfig{
		Provider:  "openai",
		APIKeyEnv: "MIERU_TEST_NO_KEY",
	})
	if !errors.Is(err, ErrAPIKeyRequired) {
		t.Errorf("got %v, want ErrAPIKeyRequired", err)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(&config.EmbeddingConfig{Provider: "nope"}); err == nil {
		t.Error("unknown provider should error")
	}
}
