package mcpServer

import (
	"context"
	"time"

	"github.com/akolanti/docqa/internal/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	CollectionID   string `json:"collection_id" jsonschema:"id of the collection to search"`
	Question       string `json:"question" jsonschema:"the question to answer from the collection's documents"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"continue an earlier conversation"`
	TopK           int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
}

type AskOutput struct {
	Success        bool         `json:"success"`
	Answer         string       `json:"answer"`
	ConversationID string       `json:"conversation_id"`
	Sources        []rag.Source `json:"sources"`
	Error          string       `json:"error,omitempty"`
}

type ListCollectionsInput struct{}

type CollectionOutput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	DocumentCount int    `json:"document_count"`
}

type ListCollectionsOutput struct {
	Collections []CollectionOutput `json:"collections"`
}

type ListDocumentsInput struct {
	CollectionID string `json:"collection_id" jsonschema:"id of the collection"`
}

type DocumentOutput struct {
	ID         string     `json:"id"`
	Filename   string     `json:"filename"`
	Status     string     `json:"status"`
	Indexed    bool       `json:"indexed"`
	ChunkCount int        `json:"chunk_count"`
	PageCount  int        `json:"page_count"`
	UploadedAt time.Time  `json:"uploaded_at"`
	Processed  *time.Time `json:"processed_at,omitempty"`
}

type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

type IndexStatsInput struct{}

type IndexStatsOutput struct {
	Name       string         `json:"name"`
	Dimension  int            `json:"dimension"`
	PointCount int            `json:"point_count"`
	Ready      bool           `json:"ready"`
	Namespaces map[string]int `json:"namespaces,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_collection",
		Description: "Answer a question from the documents of one collection, citing the documents used.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List document collections with their document counts.",
	}, s.handleListCollections)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents of a collection with their ingestion status.",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report vector index readiness and per-collection vector counts.",
	}, s.handleIndexStats)
}

// handleAsk returns an unsuccessful answer as output, not as a tool error;
// only an unknown collection or an empty question fail the call.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	res, err := s.rag.Query(ctx, rag.QueryRequest{
		CollectionID:   input.CollectionID,
		Question:       input.Question,
		ConversationID: input.ConversationID,
		TopK:           input.TopK,
		IncludeSources: true,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	out := AskOutput{
		Success:        res.Success,
		Answer:         res.Response,
		ConversationID: res.ConversationID,
		Sources:        res.Sources,
	}
	if out.Sources == nil {
		out.Sources = []rag.Source{}
	}
	if res.Failure != nil {
		out.Error = res.Failure.Detail
	}
	return nil, out, nil
}

func (s *Server) handleListCollections(ctx context.Context, _ *mcp.CallToolRequest, _ ListCollectionsInput) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	cols, err := s.collections.ListCollections(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, err
	}
	out := ListCollectionsOutput{Collections: make([]CollectionOutput, len(cols))}
	for i, c := range cols {
		out.Collections[i] = CollectionOutput{ID: c.Id, Name: c.Name, Description: c.Description, DocumentCount: c.DocumentCount}
	}
	return nil, out, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *mcp.CallToolRequest, input ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if _, err := s.collections.GetCollection(ctx, input.CollectionID); err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	docs, err := s.documents.ListDocuments(ctx, input.CollectionID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	out := ListDocumentsOutput{Documents: make([]DocumentOutput, len(docs)), Count: len(docs)}
	for i, d := range docs {
		out.Documents[i] = DocumentOutput{
			ID:         d.Id,
			Filename:   d.Filename,
			Status:     string(d.Status),
			Indexed:    d.Indexed,
			ChunkCount: d.ChunkCount,
			PageCount:  d.PageCount,
			UploadedAt: d.UploadedAt,
			Processed:  d.ProcessedAt,
		}
	}
	return nil, out, nil
}

func (s *Server) handleIndexStats(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatsInput) (*mcp.CallToolResult, IndexStatsOutput, error) {
	stats, err := s.rag.IndexStats(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, err
	}
	return nil, IndexStatsOutput{
		Name:       stats.Name,
		Dimension:  stats.Dimension,
		PointCount: stats.PointCount,
		Ready:      stats.Ready,
		Namespaces: stats.Namespaces,
	}, nil
}
