package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/docqa/internal/customHttpClient"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Provider struct {
	client    openai.Client
	model     string
	dimension int
}

// New returns EmbeddingUnavailable when no API key is configured. Retries are
// left to the embedding client, so the SDK's own retry loop is disabled.
func New(apiKey, baseURL, model string, dimension int) (*Provider, error) {
	if apiKey == "" {
		return nil, ragErrors.Newf(ragErrors.EmbeddingUnavailable, "openai embedding", "OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.NewHTTPClient()),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{
		client:    openai.NewClient(opts...),
		model:     model,
		dimension: dimension,
	}, nil
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.model),
	}
	// only the text-embedding-3 family accepts a dimensions override
	if strings.HasPrefix(p.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(p.dimension))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, ragErrors.Newf(ragErrors.EmbeddingRemote, "openai embedding", "got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, ragErrors.Newf(ragErrors.EmbeddingRemote, "openai embedding", "embedding index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		out[d.Index] = v
	}
	return out, nil
}

func classify(err error) error {
	const op = "openai embedding"
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonGeneric, op, err)
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonRateLimited, op, fmt.Errorf("%w: %s", ragErrors.ErrRateLimited, apiErr.Message))
	case apiErr.Code == "context_length_exceeded" || strings.Contains(msg, "maximum context length") || strings.Contains(msg, "too long"):
		return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonTooLong, op, err)
	case apiErr.StatusCode == http.StatusUnauthorized:
		return ragErrors.New(ragErrors.EmbeddingUnavailable, op, err)
	}
	return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonGeneric, op, err)
}
