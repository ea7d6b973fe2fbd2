package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// openaiNativeDimension is the width of text-embedding-3-small vectors.
// Wider than the storage target, so these vectors get truncated by
// reconciliation.
const openaiNativeDimension = 1536

// openaiMaxBatch caps inputs per request; larger batches are split.
const openaiMaxBatch = 100

// OpenAIProvider embeds text with the OpenAI embeddings API. The client
// reads OPENAI_API_KEY from the environment.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-backed provider for the given
// embedding model.
func NewOpenAIProvider(model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Dimension() int { return openaiNativeDimension }

// Embed requests one embedding per input text, splitting oversized batches
// into sequential API calls.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(texts))

	for _, batch := range subBatch(texts, openaiMaxBatch) {
		resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
			Model: openai.EmbeddingModel(p.model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for i, f := range d.Embedding {
				vec[i] = float32(f)
			}
			vecs = append(vecs, vec)
		}
	}

	return vecs, nil
}
