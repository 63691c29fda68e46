package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Provider errors are *ragErrors.Error of kind GenerationRemote (with a
// reason) or GenerationUnavailable.
type Provider interface {
	Complete(ctx context.Context, req Request) (Completion, error)
	Model() string
}
