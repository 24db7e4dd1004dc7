//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/mieru/internal/vector"
)

// ONNXProvider runs a CLIP model locally via ONNX Runtime. It requires CGO
// and the onnxruntime shared library, plus two exported model files under
// modelDir: clip_text.onnx and clip_visual.onnx.
type ONNXProvider struct {
	textSession   *ort.AdvancedSession
	visualSession *ort.AdvancedSession
	dimensions    int
	maxTokens     int
	tokenizer     Tokenizer
	cache         *Cache
	// Pre-allocated tensors for Run(); input data is updated in place.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	textOutputTensor    *ort.Tensor[float32]
	pixelTensor         *ort.Tensor[float32]
	visualOutputTensor  *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXProvider creates a local CLIP provider. InitializeEnvironment is
// called if not already done.
func NewONNXProvider(modelDir string, dimensions, maxTokens, cacheSize int) (*ONNXProvider, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 77
	}

	tokenizer := &SimpleTokenizer{}
	inputIDs, attentionMask := tokenizer.Tokenize("", maxTokens)

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	textOutputTensor, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create text output tensor: %w", err)
	}
	pixelTensor, err := ort.NewTensor(
		ort.NewShape(1, 3, clipImageSize, clipImageSize),
		make([]float32, 3*clipImageSize*clipImageSize),
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		textOutputTensor.Destroy()
		return nil, fmt.Errorf("failed to create pixel_values tensor: %w", err)
	}
	visualOutputTensor, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		textOutputTensor.Destroy()
		pixelTensor.Destroy()
		return nil, fmt.Errorf("failed to create visual output tensor: %w", err)
	}

	textSession, err := ort.NewAdvancedSession(
		filepath.Join(modelDir, "clip_text.onnx"),
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor},
		[]ort.ArbitraryTensor{textOutputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		textOutputTensor.Destroy()
		pixelTensor.Destroy()
		visualOutputTensor.Destroy()
		return nil, fmt.Errorf("failed to create text session: %w", err)
	}
	visualSession, err := ort.NewAdvancedSession(
		filepath.Join(modelDir, "clip_visual.onnx"),
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		[]ort.ArbitraryTensor{pixelTensor},
		[]ort.ArbitraryTensor{visualOutputTensor},
		nil,
	)
	if err != nil {
		textSession.Destroy()
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		textOutputTensor.Destroy()
		pixelTensor.Destroy()
		visualOutputTensor.Destroy()
		return nil, fmt.Errorf("failed to create visual session: %w", err)
	}

	return &ONNXProvider{
		textSession:         textSession,
		visualSession:       visualSession,
		dimensions:          dimensions,
		maxTokens:           maxTokens,
		tokenizer:           tokenizer,
		cache:               NewCache(cacheSize),
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		textOutputTensor:    textOutputTensor,
		pixelTensor:         pixelTensor,
		visualOutputTensor:  visualOutputTensor,
	}, nil
}

// EmbedText returns the normalized text embedding, using cache when available.
func (p *ONNXProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := p.cache.Get(text); ok {
		return cached, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	inputIDs, attentionMask := p.tokenizer.Tokenize(text, p.maxTokens)
	copy(p.inputIDsTensor.GetData(), inputIDs)
	copy(p.attentionMaskTensor.GetData(), attentionMask)

	if err := p.textSession.Run(); err != nil {
		return nil, fmt.Errorf("text inference failed: %w", err)
	}

	embedding := make([]float32, p.dimensions)
	copy(embedding, p.textOutputTensor.GetData()[:p.dimensions])
	vector.NormalizeL2(embedding)
	p.cache.Set(text, embedding)
	return embedding, nil
}

// EmbedImage decodes and preprocesses the image at path, then returns the
// normalized image embedding.
func (p *ONNXProvider) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	pixels, err := PreprocessImage(path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.pixelTensor.GetData(), pixels)
	if err := p.visualSession.Run(); err != nil {
		return nil, fmt.Errorf("visual inference failed: %w", err)
	}

	embedding := make([]float32, p.dimensions)
	copy(embedding, p.visualOutputTensor.GetData()[:p.dimensions])
	vector.NormalizeL2(embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (p *ONNXProvider) Dimensions() int {
	return p.dimensions
}

// Close destroys the sessions and tensors.
func (p *ONNXProvider) Close() error {
	var err error
	if p.textSession != nil {
		err = p.textSession.Destroy()
		p.textSession = nil
	}
	if p.visualSession != nil {
		if derr := p.visualSession.Destroy(); err == nil {
			err = derr
		}
		p.visualSession = nil
	}
	if p.inputIDsTensor != nil {
		_ = p.inputIDsTensor.Destroy()
		p.inputIDsTensor = nil
	}
	if p.attentionMaskTensor != nil {
		_ = p.attentionMaskTensor.Destroy()
		p.attentionMaskTensor = nil
	}
	if p.textOutputTensor != nil {
		_ = p.textOutputTensor.Destroy()
		p.textOutputTensor = nil
	}
	if p.pixelTensor != nil {
		_ = p.pixelTensor.Destroy()
		p.pixelTensor = nil
	}
	if p.visualOutputTensor != nil {
		_ = p.visualOutputTensor.Destroy()
		p.visualOutputTensor = nil
	}
	return err
}
