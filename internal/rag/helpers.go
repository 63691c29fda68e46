package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
)

const systemPrompt = `You are a retrieval-augmented assistant answering questions about the user's documents.
Guidelines:
1. Answer only from the provided document context. Never fabricate information.
2. Synthesize information from all relevant sources, not just the first one.
3. Cite the sources you use by index, for example [Source 1] or [Source 2].
4. If the context is incomplete, say what is missing and what would be needed to answer fully.
5. If sources disagree, present each position clearly.
6. Structure longer answers with headings, bullet points or numbered steps using markdown.`

const contextSeparator = "\n---\n"

const (
	apologyUnavailable = "I apologize, but I cannot generate a response at this time. Please check the API configuration."
	apologyRateLimited = "I apologize, but I've hit the API rate limit. Please wait a moment and try again."
	apologyTooLong     = "The context is too long for me to process. Please try a more specific question."
	apologyGeneric     = "I apologize, but I encountered an error generating a response. Please try again."
)

func assembleContext(matches []vectorDB.Match) string {
	if len(matches) == 0 {
		return config.NoContextMarker
	}
	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = fmt.Sprintf("[Source %d - Document: %s - Relevance: %.2f]\n%s\n", i+1, m.DocumentID, m.Score, m.Text)
	}
	return strings.Join(blocks, contextSeparator)
}

func buildMessages(history []docModel.Message, contextStr, question string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})

	if len(history) > config.HistoryTurnLimit {
		history = history[len(history)-config.HistoryTurnLimit:]
	}
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == docModel.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}

	user := "Context from documents:\n" + contextStr + "\n\n---\n\n" +
		"User Question: " + question + "\n\n" +
		"Answer based strictly on the context above, cite the sources you use, and explain what is missing if the context is insufficient."
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: user})
}

// extractSources keeps the first match of each document.
func extractSources(matches []vectorDB.Match) []Source {
	seen := make(map[string]bool, len(matches))
	var sources []Source
	for _, m := range matches {
		if m.DocumentID == "" || seen[m.DocumentID] {
			continue
		}
		seen[m.DocumentID] = true
		filename := m.Filename
		if filename == "" {
			filename = "Unknown"
		}
		sources = append(sources, Source{
			DocumentID: m.DocumentID,
			Filename:   filename,
			ChunkIndex: m.ChunkIndex,
			Score:      m.Score,
		})
	}
	return sources
}

func apology(err error) string {
	switch {
	case ragErrors.KindOf(err) == ragErrors.GenerationUnavailable:
		return apologyUnavailable
	case ragErrors.IsRateLimited(err):
		return apologyRateLimited
	case ragErrors.IsTooLong(err):
		return apologyTooLong
	default:
		return apologyGeneric
	}
}

func generationCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*config.InputPricePer1KTokens +
		float64(completionTokens)/1000*config.OutputPricePer1KTokens
}

func conversationTitle(question string) string {
	const limit = 50
	if utf8.RuneCountInString(question) <= limit {
		return question
	}
	return string([]rune(question)[:limit]) + "..."
}
