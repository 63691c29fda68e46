package openaiLLM

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/docqa/internal/customHttpClient"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
}

func New(apiKey, baseURL, model string) (llm.Provider, error) {
	if apiKey == "" {
		return nil, ragErrors.Newf(ragErrors.GenerationUnavailable, "openai chat", "OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.NewHTTPClient()),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &llmClient{client: openai.NewClient(opts...), modelName: model}, nil
}

func (c *llmClient) Model() string {
	return c.modelName
}

func (c *llmClient) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Completion{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonGeneric, "openai chat", errors.New("no choices returned"))
	}

	model := resp.Model
	if model == "" {
		model = c.modelName
	}
	return llm.Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func classify(err error) error {
	const op = "openai chat"
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonGeneric, op, err)
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonRateLimited, op, fmt.Errorf("%w: %s", ragErrors.ErrRateLimited, apiErr.Message))
	case apiErr.Code == "context_length_exceeded" || strings.Contains(msg, "maximum context length"):
		return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonTooLong, op, err)
	case apiErr.StatusCode == http.StatusUnauthorized:
		return ragErrors.New(ragErrors.GenerationUnavailable, op, err)
	}
	return ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonGeneric, op, err)
}
