package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/llm"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

func New(ctx context.Context, apiKey, modelName string) (llm.Provider, error) {
	if apiKey == "" {
		return nil, ragErrors.Newf(ragErrors.GenerationUnavailable, "gemini", "GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, ragErrors.New(ragErrors.GenerationUnavailable, "gemini", err)
	}
	return &llmClient{client: c, modelName: modelName}, nil
}

func (c *llmClient) Model() string {
	return c.modelName
}

func (c *llmClient) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	system, contents := toContents(req.Messages)

	temperature := float32(req.Temperature)
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &temperature,
		MaxOutputTokens:   int32(req.MaxTokens),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		return llm.Completion{}, classify(err)
	}
	if result == nil {
		return llm.Completion{}, ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonGeneric, "gemini", errors.New("empty response"))
	}

	out := llm.Completion{Text: result.Text(), Model: c.modelName}
	if result.UsageMetadata != nil {
		out.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// toContents lifts system messages into the system instruction; gemini calls
// the assistant role "model".
func toContents(messages []llm.Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}}}
	}
	return system, contents
}

func classify(err error) error {
	const op = "gemini"
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonRateLimited, op, fmt.Errorf("%w: %s", ragErrors.ErrRateLimited, s.Message()))
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonRateLimited, op, fmt.Errorf("%w: %s", ragErrors.ErrRateLimited, apiErr.Message))
		case apiErr.Code == http.StatusBadRequest && (strings.Contains(msg, "token count") || strings.Contains(msg, "exceeds")):
			return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonTooLong, op, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return ragErrors.New(ragErrors.GenerationUnavailable, op, err)
		}
	}
	return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonGeneric, op, err)
}
