package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/pkg/logger_i"
)

// QueryRequest with TopK <= 0 uses the configured default. An empty
// ConversationID starts a new conversation.
type QueryRequest struct {
	CollectionID   string `json:"collection_id"`
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
	IncludeSources bool   `json:"include_sources"`
}

type Source struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"relevance_score"`
}

type AnswerMetadata struct {
	CollectionID     string    `json:"collection_id"`
	Model            string    `json:"model,omitempty"`
	Temperature      float64   `json:"temperature"`
	ContextUsed      bool      `json:"context_used"`
	ChunksRetrieved  int       `json:"chunks_retrieved"`
	LatencyMs        int64     `json:"response_time_ms"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"tokens_used"`
	EstimatedCost    float64   `json:"estimated_cost"`
	Timestamp        time.Time `json:"timestamp"`
}

type Failure struct {
	Kind   ragErrors.Kind   `json:"kind"`
	Reason ragErrors.Reason `json:"reason,omitempty"`
	Detail string           `json:"detail"`
}

// AnswerResult is either a grounded answer (Success) or an apology with the
// Failure that caused it.
type AnswerResult struct {
	Success        bool           `json:"success"`
	Response       string         `json:"response"`
	ConversationID string         `json:"conversation_id"`
	Sources        []Source       `json:"sources,omitempty"`
	Metadata       AnswerMetadata `json:"metadata"`
	Failure        *Failure       `json:"error,omitempty"`
}

type stage string

const (
	stageEmbedQuery      stage = "EmbedQuery"
	stageRetrieve        stage = "Retrieve"
	stageAssembleContext stage = "AssembleContext"
	stageGenerate        stage = "Generate"
	stageExtractSources  stage = "ExtractSources"
)

// queryRun carries one question through the stages.
type queryRun struct {
	req     QueryRequest
	conv    docModel.Conversation
	history []docModel.Message
	log     *logger_i.Logger

	vector     []float32
	matches    []vectorDB.Match
	contextStr string
	completion llm.Completion
	latency    time.Duration
	sources    []Source
}

func (r *queryRun) enter(st stage) {
	r.log.Debug("query stage", "stage", st)
}

// Query answers a question against one collection. Only an empty question
// or an unknown collection or conversation is returned as an error; every
// other failure becomes an unsuccessful AnswerResult.
func (s *service) Query(ctx context.Context, req QueryRequest) (AnswerResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("rag_query", time.Since(start)) }()

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return AnswerResult{}, ragErrors.Newf(ragErrors.InvalidInput, "query", "question is empty")
	}
	if _, err := s.collections.GetCollection(ctx, req.CollectionID); err != nil {
		if errors.Is(err, ragErrors.ErrNotFound) {
			return AnswerResult{}, err
		}
		return s.failed(req, "", fmt.Errorf("loading collection: %w", err)), nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, config.QueryTimeout)
	defer cancel()

	run := &queryRun{
		req: req,
		log: s.logger.WithContext(ctx).With("collectionId", req.CollectionID),
	}
	if err := s.openConversation(queryCtx, run); err != nil {
		return AnswerResult{}, err
	}
	run.log = run.log.With("conversationId", run.conv.Id)

	run.enter(stageEmbedQuery)
	run.vector = s.embedder.EmbedOne(embedding.WithPurpose(queryCtx, embedding.PurposeQuery), req.Question)
	if run.vector == nil {
		run.log.Warn("query could not be embedded, answering without context")
	} else {
		run.enter(stageRetrieve)
		s.retrieve(queryCtx, run)
	}

	run.enter(stageAssembleContext)
	run.contextStr = assembleContext(run.matches)

	run.enter(stageGenerate)
	if err := s.generate(queryCtx, run); err != nil {
		run.log.Error("generation failed", "error", err)
		res := s.failed(req, run.conv.Id, err)
		res.Metadata.ChunksRetrieved = len(run.matches)
		res.Metadata.ContextUsed = len(run.matches) > 0
		return res, nil
	}

	run.enter(stageExtractSources)
	run.sources = extractSources(run.matches)

	res := s.answer(run)
	s.remember(ctx, run, res)
	return res, nil
}

func (s *service) openConversation(ctx context.Context, run *queryRun) error {
	if run.req.ConversationID != "" {
		conv, err := s.conversations.GetConversation(ctx, run.req.ConversationID)
		if err != nil {
			return err
		}
		if conv.CollectionId != run.req.CollectionID {
			return ragErrors.Newf(ragErrors.NotFound, "query", "conversation %s does not belong to collection %s", conv.Id, run.req.CollectionID)
		}
		run.conv = conv
		history, err := s.conversations.History(ctx, conv.Id, config.HistoryTurnLimit)
		if err != nil {
			run.log.Warn("could not load history", "error", err)
		}
		run.history = history
		return nil
	}

	now := time.Now().UTC()
	run.conv = docModel.Conversation{
		Id:           docModel.NewConversationId(),
		CollectionId: run.req.CollectionID,
		Title:        conversationTitle(run.req.Question),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.conversations.CreateConversation(ctx, run.conv); err != nil {
		run.log.Error("could not create conversation", "error", err)
	}
	return nil
}

func (s *service) retrieve(ctx context.Context, run *queryRun) {
	topK := s.topK
	if run.req.TopK > 0 {
		topK = run.req.TopK
	}
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	topK = min(topK, config.MaxTopK)

	matches, err := s.vectors.Search(ctx, run.vector, topK, run.req.CollectionID)
	if err != nil {
		run.log.Error("retrieval failed, answering without context", "error", err)
		return
	}
	run.matches = matches
	run.log.Debug("retrieved chunks", "count", len(matches), "topK", topK)
}

func (s *service) generate(ctx context.Context, run *queryRun) error {
	if s.llmProvider == nil {
		return ragErrors.Newf(ragErrors.GenerationUnavailable, "generate", "no language model configured")
	}
	req := llm.Request{
		Messages:    buildMessages(run.history, run.contextStr, run.req.Question),
		Temperature: config.ModelTemperature,
		MaxTokens:   config.ModelMaxTokens,
	}

	start := time.Now()
	completion, err := s.llmProvider.Complete(ctx, req)
	run.latency = time.Since(start)
	metrics.CaptureExecutionMetrics("llm_generation", run.latency)
	if err != nil {
		return err
	}
	run.completion = completion
	return nil
}

func (s *service) answer(run *queryRun) AnswerResult {
	c := run.completion
	cost := generationCost(c.PromptTokens, c.CompletionTokens)
	metrics.CaptureGenerationUsage(c.PromptTokens, c.CompletionTokens, cost)

	model := c.Model
	if model == "" {
		model = s.llmProvider.Model()
	}
	res := AnswerResult{
		Success:        true,
		Response:       c.Text,
		ConversationID: run.conv.Id,
		Metadata: AnswerMetadata{
			CollectionID:     run.req.CollectionID,
			Model:            model,
			Temperature:      config.ModelTemperature,
			ContextUsed:      len(run.matches) > 0,
			ChunksRetrieved:  len(run.matches),
			LatencyMs:        run.latency.Milliseconds(),
			PromptTokens:     c.PromptTokens,
			CompletionTokens: c.CompletionTokens,
			TotalTokens:      c.PromptTokens + c.CompletionTokens,
			EstimatedCost:    cost,
			Timestamp:        time.Now().UTC(),
		},
	}
	if run.req.IncludeSources {
		res.Sources = run.sources
	}
	run.log.Info("question answered", "chunks", len(run.matches), "tokens", res.Metadata.TotalTokens, "latencyMs", res.Metadata.LatencyMs)
	return res
}

// remember appends the exchange to the conversation. Failures only cost
// history, the caller still gets the answer.
func (s *service) remember(ctx context.Context, run *queryRun, res AnswerResult) {
	now := time.Now().UTC()
	user := docModel.Message{
		Id:             docModel.NewMessageId(),
		ConversationId: run.conv.Id,
		Role:           docModel.RoleUser,
		Content:        run.req.Question,
		CreatedAt:      now,
	}
	assistant := docModel.Message{
		Id:             docModel.NewMessageId(),
		ConversationId: run.conv.Id,
		Role:           docModel.RoleAssistant,
		Content:        res.Response,
		CreatedAt:      now,
		Metadata: map[string]any{
			"model":            res.Metadata.Model,
			"chunks_retrieved": res.Metadata.ChunksRetrieved,
			"tokens_used":      res.Metadata.TotalTokens,
			"estimated_cost":   res.Metadata.EstimatedCost,
			"sources":          run.sources,
			"response_time_ms": res.Metadata.LatencyMs,
		},
	}
	if err := s.conversations.AppendMessages(ctx, run.conv.Id, user, assistant); err != nil {
		run.log.Error("could not save conversation messages", "error", err)
	}
}

func (s *service) failed(req QueryRequest, conversationId string, err error) AnswerResult {
	f := &Failure{
		Kind:   ragErrors.KindOf(err),
		Reason: ragErrors.ReasonOf(err),
		Detail: err.Error(),
	}
	return AnswerResult{
		Success:        false,
		Response:       apology(err),
		ConversationID: conversationId,
		Metadata: AnswerMetadata{
			CollectionID: req.CollectionID,
			Timestamp:    time.Now().UTC(),
		},
		Failure: f,
	}
}
