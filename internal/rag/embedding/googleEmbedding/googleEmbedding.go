package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	documentTask = "RETRIEVAL_DOCUMENT"
	queryTask    = "RETRIEVAL_QUERY"
)

func taskType(ctx context.Context) string {
	if embedding.PurposeFrom(ctx) == embedding.PurposeQuery {
		return queryTask
	}
	return documentTask
}

type Provider struct {
	genAi     *genai.Client
	model     string
	dimension int32
}

func New(ctx context.Context, apiKey, model string, dimension int) (*Provider, error) {
	if apiKey == "" {
		return nil, ragErrors.Newf(ragErrors.EmbeddingUnavailable, "google embedding", "GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, ragErrors.New(ragErrors.EmbeddingUnavailable, "google embedding", err)
	}
	return &Provider{genAi: c, model: model, dimension: int32(dimension)}, nil
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := p.genAi.Models.EmbedContent(ctx, p.model, getContent(texts), &genai.EmbedContentConfig{
		OutputDimensionality: &p.dimension,
		TaskType:             taskType(ctx),
	})
	if err != nil {
		return nil, classify(err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, ragErrors.Newf(ragErrors.EmbeddingRemote, "google embedding", "got %d embeddings for %d inputs", got, len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range res.Embeddings {
		if e != nil {
			out[i] = e.Values
		}
	}
	return out, nil
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// classify maps both transport flavours: grpc status codes and the REST
// APIError the genai client returns.
func classify(err error) error {
	const op = "google embedding"
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonRateLimited, op, fmt.Errorf("%w: %s", ragErrors.ErrRateLimited, s.Message()))
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonRateLimited, op, fmt.Errorf("%w: %s", ragErrors.ErrRateLimited, apiErr.Message))
		case apiErr.Code == http.StatusBadRequest && (strings.Contains(msg, "too long") || strings.Contains(msg, "exceeds")):
			return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonTooLong, op, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return ragErrors.New(ragErrors.EmbeddingUnavailable, op, err)
		}
	}
	return ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonGeneric, op, err)
}
