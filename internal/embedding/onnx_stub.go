//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

var errONNXUnavailable = errors.New("ONNX provider requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// ONNXProvider stub type when built without CGO (see onnx.go for the real implementation).
type ONNXProvider struct{}

// NewONNXProvider returns an error when built without CGO (ONNX not available).
func NewONNXProvider(_ string, _, _, _ int) (*ONNXProvider, error) {
	return nil, errONNXUnavailable
}

// EmbedImage is unreachable; the constructor always fails without CGO.
func (p *ONNXProvider) EmbedImage(_ context.Context, _ string) ([]float32, error) {
	return nil, errONNXUnavailable
}

// EmbedText is unreachable; the constructor always fails without CGO.
func (p *ONNXProvider) EmbedText(_ context.Context, _ string) ([]float32, error) {
	return nil, errONNXUnavailable
}

// Dimensions returns 0 in the stub.
func (p *ONNXProvider) Dimensions() int { return 0 }

// Close is a no-op in the stub.
func (p *ONNXProvider) Close() error { return nil }
