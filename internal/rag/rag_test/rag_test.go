package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	stores  *memStores
	emb     *MockEmbedder
	vectors *MockVectors
	model   *MockLLM
	svc     rag.Service
}

func newFixture(withLLM bool) *fixture {
	f := &fixture{
		stores:  newMemStores(),
		emb:     &MockEmbedder{},
		vectors: &MockVectors{},
		model:   &MockLLM{},
	}
	f.stores.collections["col_1"] = docModel.Collection{Id: "col_1", Name: "Reports"}
	deps := rag.Deps{
		Collections:   f.stores,
		Documents:     f.stores,
		Chunks:        f.stores,
		Conversations: f.stores,
		Blobs:         f.stores,
		Vectors:       f.vectors,
		Embedder:      f.emb,
		Ingestor:      &MockIngestor{},
		TopK:          config.DefaultTopK,
	}
	if withLLM {
		deps.LLM = f.model
	}
	f.svc = rag.NewService(deps)
	return f
}

func matches() []vectorDB.Match {
	return []vectorDB.Match{
		{ID: "doc_a_chunk_0", Score: 0.91, DocumentID: "doc_a", Filename: "a.pdf", ChunkIndex: 0, Text: "Revenue grew 12%."},
		{ID: "doc_a_chunk_3", Score: 0.85, DocumentID: "doc_a", Filename: "a.pdf", ChunkIndex: 3, Text: "Costs were flat."},
		{ID: "doc_b_chunk_1", Score: 0.42, DocumentID: "doc_b", Filename: "b.txt", ChunkIndex: 1, Text: "Outlook positive."},
	}
}

func TestQuery_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		withLLM       bool
		setup         func(f *fixture)
		wantSuccess   bool
		wantResponse  string
		wantKind      ragErrors.Kind
		wantReason    ragErrors.Reason
		wantChunks    int
		wantInContext string
	}{
		{
			name:    "Success_Full_Flow",
			withLLM: true,
			setup: func(f *fixture) {
				f.vectors.OnSearch = func(ctx context.Context, v []float32, topK int, ns string) ([]vectorDB.Match, error) {
					return matches(), nil
				}
				f.model.OnComplete = func(ctx context.Context, req llm.Request) (llm.Completion, error) {
					return llm.Completion{Text: "final answer", Model: "gpt-test", PromptTokens: 2000, CompletionTokens: 1000}, nil
				}
			},
			wantSuccess:   true,
			wantResponse:  "final answer",
			wantChunks:    3,
			wantInContext: "[Source 1 - Document: doc_a - Relevance: 0.91]\nRevenue grew 12%.\n\n---\n[Source 2",
		},
		{
			name:          "Success_No_Indexed_Documents",
			withLLM:       true,
			wantSuccess:   true,
			wantResponse:  "mocked llm response",
			wantInContext: "Context from documents:\n" + config.NoContextMarker + "\n\n---\n\nUser Question: What grew?",
		},
		{
			name:    "Embedding_Failure_Skips_Retrieval",
			withLLM: true,
			setup: func(f *fixture) {
				f.emb.OnEmbedOne = func(ctx context.Context, text string) []float32 { return nil }
				f.vectors.OnSearch = func(ctx context.Context, v []float32, topK int, ns string) ([]vectorDB.Match, error) {
					panic("search must not run without a query vector")
				}
			},
			wantSuccess:   true,
			wantResponse:  "mocked llm response",
			wantInContext: config.NoContextMarker,
		},
		{
			name:    "Vector_Search_Failure_Answers_Without_Context",
			withLLM: true,
			setup: func(f *fixture) {
				f.vectors.OnSearch = func(ctx context.Context, v []float32, topK int, ns string) ([]vectorDB.Match, error) {
					return nil, ragErrors.Remote(ragErrors.VectorStoreRemote, ragErrors.ReasonGeneric, "search", errors.New("db timeout"))
				}
			},
			wantSuccess:   true,
			wantResponse:  "mocked llm response",
			wantInContext: config.NoContextMarker,
		},
		{
			name:         "Generation_Unavailable",
			withLLM:      false,
			wantSuccess:  false,
			wantResponse: "I apologize, but I cannot generate a response at this time. Please check the API configuration.",
			wantKind:     ragErrors.GenerationUnavailable,
		},
		{
			name:    "Generation_Rate_Limited",
			withLLM: true,
			setup: func(f *fixture) {
				f.model.OnComplete = func(ctx context.Context, req llm.Request) (llm.Completion, error) {
					return llm.Completion{}, ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonRateLimited, "complete", errors.New("429"))
				}
			},
			wantSuccess:  false,
			wantResponse: "I apologize, but I've hit the API rate limit. Please wait a moment and try again.",
			wantKind:     ragErrors.GenerationRemote,
			wantReason:   ragErrors.ReasonRateLimited,
		},
		{
			name:    "Generation_Context_Too_Long",
			withLLM: true,
			setup: func(f *fixture) {
				f.model.OnComplete = func(ctx context.Context, req llm.Request) (llm.Completion, error) {
					return llm.Completion{}, ragErrors.Remote(ragErrors.GenerationRemote, ragErrors.ReasonTooLong, "complete", errors.New("context_length_exceeded"))
				}
			},
			wantSuccess:  false,
			wantResponse: "The context is too long for me to process. Please try a more specific question.",
			wantKind:     ragErrors.GenerationRemote,
			wantReason:   ragErrors.ReasonTooLong,
		},
		{
			name:    "Generation_Generic_Error",
			withLLM: true,
			setup: func(f *fixture) {
				f.model.OnComplete = func(ctx context.Context, req llm.Request) (llm.Completion, error) {
					return llm.Completion{}, errors.New("provider down")
				}
			},
			wantSuccess:  false,
			wantResponse: "I apologize, but I encountered an error generating a response. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.withLLM)
			if tt.setup != nil {
				tt.setup(f)
			}

			res, err := f.svc.Query(context.Background(), rag.QueryRequest{
				CollectionID:   "col_1",
				Question:       "  What grew?  ",
				IncludeSources: true,
			})
			require.NoError(t, err)

			if res.Success != tt.wantSuccess {
				t.Errorf("Expected success %v, got %v", tt.wantSuccess, res.Success)
			}
			if res.Response != tt.wantResponse {
				t.Errorf("Expected response %q, got %q", tt.wantResponse, res.Response)
			}
			assert.NotEmpty(t, res.ConversationID)
			assert.Equal(t, tt.wantChunks, res.Metadata.ChunksRetrieved)

			if tt.wantSuccess {
				assert.Nil(t, res.Failure)
			} else {
				require.NotNil(t, res.Failure)
				assert.Equal(t, tt.wantKind, res.Failure.Kind)
				assert.Equal(t, tt.wantReason, res.Failure.Reason)
			}

			if tt.wantInContext != "" {
				require.NotEmpty(t, f.model.Requests)
				last := f.model.Requests[len(f.model.Requests)-1]
				user := last.Messages[len(last.Messages)-1]
				assert.Equal(t, llm.RoleUser, user.Role)
				assert.Contains(t, user.Content, tt.wantInContext)
			}
		})
	}
}

func TestQuery_SourcesAndCost(t *testing.T) {
	f := newFixture(true)
	f.vectors.OnSearch = func(ctx context.Context, v []float32, topK int, ns string) ([]vectorDB.Match, error) {
		assert.Equal(t, "col_1", ns)
		return matches(), nil
	}

	res, err := f.svc.Query(context.Background(), rag.QueryRequest{CollectionID: "col_1", Question: "q", IncludeSources: true})
	require.NoError(t, err)

	assert.Equal(t, []rag.Source{
		{DocumentID: "doc_a", Filename: "a.pdf", ChunkIndex: 0, Score: 0.91},
		{DocumentID: "doc_b", Filename: "b.txt", ChunkIndex: 1, Score: 0.42},
	}, res.Sources)
	assert.InDelta(t, 0.025, res.Metadata.EstimatedCost, 1e-9, "1000 in at 0.01/1k + 500 out at 0.03/1k")
	assert.Equal(t, 1500, res.Metadata.TotalTokens)
	assert.Equal(t, "mock-llm", res.Metadata.Model)
	assert.True(t, res.Metadata.ContextUsed)

	req := f.model.Requests[0]
	assert.Equal(t, config.ModelTemperature, req.Temperature)
	assert.Equal(t, config.ModelMaxTokens, req.MaxTokens)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)

	withoutSources, err := f.svc.Query(context.Background(), rag.QueryRequest{CollectionID: "col_1", Question: "q"})
	require.NoError(t, err)
	assert.Nil(t, withoutSources.Sources)
}

func TestQuery_TopK(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	for _, k := range []int{0, 3, 500} {
		_, err := f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "q", TopK: k})
		require.NoError(t, err)
	}
	assert.Equal(t, []int{config.DefaultTopK, 3, config.MaxTopK}, f.vectors.searches)
}

func TestQuery_EmbedsQuestionAsQuery(t *testing.T) {
	f := newFixture(true)
	var purpose embedding.Purpose
	f.emb.OnEmbedOne = func(ctx context.Context, text string) []float32 {
		purpose = embedding.PurposeFrom(ctx)
		return []float32{0.1, 0.2}
	}

	_, err := f.svc.Query(context.Background(), rag.QueryRequest{CollectionID: "col_1", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, embedding.PurposeQuery, purpose)
}

func TestQuery_InvalidRequests(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	_, err := f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "   "})
	assert.True(t, errors.Is(err, ragErrors.ErrInvalidInput))

	_, err = f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_missing", Question: "q"})
	assert.True(t, errors.Is(err, ragErrors.ErrNotFound))

	_, err = f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "q", ConversationID: "conv_missing"})
	assert.True(t, errors.Is(err, ragErrors.ErrNotFound))

	f.stores.convs["conv_other"] = docModel.Conversation{Id: "conv_other", CollectionId: "col_2"}
	_, err = f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "q", ConversationID: "conv_other"})
	assert.True(t, errors.Is(err, ragErrors.ErrNotFound))

	assert.Empty(t, f.model.Requests, "invalid requests have no side effects")
	assert.Len(t, f.stores.convs, 1)
}

func TestQuery_ConversationHistory(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	first, err := f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "first question"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ConversationID, config.ConversationIdPrefix))
	assert.Len(t, first.ConversationID, len(config.ConversationIdPrefix)+config.ShortIdLength)

	conv := f.stores.convs[first.ConversationID]
	assert.Equal(t, "first question", conv.Title)
	require.Len(t, f.stores.messages[first.ConversationID], 2)

	for i := 0; i < 6; i++ {
		_, err = f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "follow up", ConversationID: first.ConversationID})
		require.NoError(t, err)
	}

	last := f.model.Requests[len(f.model.Requests)-1]
	// system + 10 history messages + the new user turn
	require.Len(t, last.Messages, 1+config.HistoryTurnLimit+1)
	assert.Equal(t, llm.RoleUser, last.Messages[1].Role)
	assert.Equal(t, llm.RoleAssistant, last.Messages[2].Role)
	assert.Len(t, f.stores.messages[first.ConversationID], 14)

	msgs := f.stores.messages[first.ConversationID]
	assert.Equal(t, docModel.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "mocked llm response", msgs[1].Content)
	assert.Contains(t, msgs[1].Metadata, "tokens_used")
}

func TestQuery_FailedAnswerIsNotRemembered(t *testing.T) {
	f := newFixture(false)
	res, err := f.svc.Query(context.Background(), rag.QueryRequest{CollectionID: "col_1", Question: "q"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, f.stores.messages[res.ConversationID])
}

func TestQuery_HistoryPersistenceFailureStillAnswers(t *testing.T) {
	f := newFixture(true)
	f.stores.appendErr = errors.New("redis down")
	res, err := f.svc.Query(context.Background(), rag.QueryRequest{CollectionID: "col_1", Question: "q"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestAddDocumentAndDelete(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	doc, err := f.svc.AddDocument(ctx, "col_1", "Report.PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Id, config.DocumentIdPrefix))
	assert.Equal(t, docModel.StatusUploading, doc.Status)
	assert.Equal(t, docModel.FormatPDF, doc.Format)
	assert.Equal(t, int64(8), doc.SizeBytes)
	assert.True(t, f.stores.blobs[doc.FilePath])

	_, err = f.svc.AddDocument(ctx, "col_missing", "a.txt", strings.NewReader("x"))
	assert.True(t, errors.Is(err, ragErrors.ErrNotFound))

	f.stores.chunks[doc.Id] = []docModel.Chunk{{Id: docModel.ChunkKey(doc.Id, 0)}}
	var deletedNs, deletedDoc string
	f.vectors.OnDeleteByDocument = func(ctx context.Context, ns, docId string) error {
		deletedNs, deletedDoc = ns, docId
		return nil
	}

	require.NoError(t, f.svc.DeleteDocumentArtifacts(ctx, doc.Id))
	assert.Equal(t, "col_1", deletedNs)
	assert.Equal(t, doc.Id, deletedDoc)
	assert.Empty(t, f.stores.chunks)
	assert.Empty(t, f.stores.blobs)
	assert.Empty(t, f.stores.documents)

	assert.True(t, errors.Is(f.svc.DeleteDocumentArtifacts(ctx, doc.Id), ragErrors.ErrNotFound))
}

func TestDeleteDocumentKeepsRecordWhenVectorsFail(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	doc, err := f.svc.AddDocument(ctx, "col_1", "a.txt", strings.NewReader("hello"))
	require.NoError(t, err)

	f.vectors.OnDeleteByDocument = func(ctx context.Context, ns, docId string) error {
		return ragErrors.Remote(ragErrors.VectorStoreRemote, ragErrors.ReasonGeneric, "delete", errors.New("unreachable"))
	}
	assert.Error(t, f.svc.DeleteDocumentArtifacts(ctx, doc.Id))
	assert.Contains(t, f.stores.documents, doc.Id)
}

func TestDeleteCollectionArtifacts(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	f.stores.collections["col_2"] = docModel.Collection{Id: "col_2"}

	docA, _ := f.svc.AddDocument(ctx, "col_1", "a.txt", strings.NewReader("a"))
	docB, _ := f.svc.AddDocument(ctx, "col_2", "b.txt", strings.NewReader("b"))
	res, err := f.svc.Query(ctx, rag.QueryRequest{CollectionID: "col_1", Question: "q"})
	require.NoError(t, err)

	var namespace string
	f.vectors.OnDeleteNamespace = func(ctx context.Context, ns string) error {
		namespace = ns
		return nil
	}

	require.NoError(t, f.svc.DeleteCollectionArtifacts(ctx, "col_1"))
	assert.Equal(t, "col_1", namespace)
	assert.NotContains(t, f.stores.collections, "col_1")
	assert.NotContains(t, f.stores.documents, docA.Id)
	assert.Contains(t, f.stores.documents, docB.Id)
	assert.NotContains(t, f.stores.convs, res.ConversationID)
	assert.Len(t, f.stores.blobs, 1)

	assert.True(t, errors.Is(f.svc.DeleteCollectionArtifacts(ctx, "col_1"), ragErrors.ErrNotFound))
}

func TestIngestDocumentDelegates(t *testing.T) {
	ing := &MockIngestor{}
	svc := rag.NewService(rag.Deps{Ingestor: ing})
	out := svc.IngestDocument(context.Background(), "doc_1")
	assert.Equal(t, docModel.StatusReady, out.Status)
	assert.Equal(t, []string{"doc_1"}, ing.Ran)
}
