package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/llm"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToContents(t *testing.T) {
	system, contents := toContents([]llm.Message{
		{Role: llm.RoleSystem, Content: "rules"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
		{Role: llm.RoleUser, Content: "question"},
	})

	if system == nil || system.Parts[0].Text != "rules" {
		t.Fatalf("system instruction not lifted: %+v", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(contents))
	}
	wantRoles := []string{genai.RoleUser, genai.RoleModel, genai.RoleUser}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Errorf("turn %d role = %s, want %s", i, c.Role, wantRoles[i])
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   ragErrors.Kind
		wantReason ragErrors.Reason
	}{
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), ragErrors.GenerationRemote, ragErrors.ReasonRateLimited},
		{"rest 429", genai.APIError{Code: http.StatusTooManyRequests}, ragErrors.GenerationRemote, ragErrors.ReasonRateLimited},
		{"too long", genai.APIError{Code: http.StatusBadRequest, Message: "The input token count exceeds the maximum"}, ragErrors.GenerationRemote, ragErrors.ReasonTooLong},
		{"unauthorized", genai.APIError{Code: http.StatusUnauthorized}, ragErrors.GenerationUnavailable, ragErrors.ReasonNone},
		{"other", errors.New("eof"), ragErrors.GenerationRemote, ragErrors.ReasonGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if k := ragErrors.KindOf(got); k != tt.wantKind {
				t.Errorf("kind = %s, want %s", k, tt.wantKind)
			}
			if r := ragErrors.ReasonOf(got); r != tt.wantReason {
				t.Errorf("reason = %q, want %q", r, tt.wantReason)
			}
		})
	}
}

func TestNewWithoutKey(t *testing.T) {
	if _, err := New(context.Background(), "", "gemini-2.5-flash"); !errors.Is(err, ragErrors.ErrGenerationUnavailable) {
		t.Errorf("expected GenerationUnavailable, got %v", err)
	}
}
