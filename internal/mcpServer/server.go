package mcpServer

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/rag"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "v1.0.0"

// Answerer is the part of rag.Service the tools use.
type Answerer interface {
	Query(ctx context.Context, req rag.QueryRequest) (rag.AnswerResult, error)
	IndexStats(ctx context.Context) (vectorDB.IndexStats, error)
}

type Deps struct {
	RAG         Answerer
	Collections docModel.CollectionStore
	Documents   docModel.DocumentStore
}

// Server exposes collections as MCP tools, over stdio or streamable HTTP.
type Server struct {
	server      *mcp.Server
	rag         Answerer
	collections docModel.CollectionStore
	documents   docModel.DocumentStore
	logger      *logger_i.Logger
}

func NewServer(d Deps) (*Server, error) {
	if d.RAG == nil || d.Collections == nil || d.Documents == nil {
		return nil, errors.New("mcp server needs a rag service, a collection store and a document store")
	}
	s := &Server{
		server:      mcp.NewServer(&mcp.Implementation{Name: "docqa", Version: Version}, nil),
		rag:         d.RAG,
		collections: d.Collections,
		documents:   d.Documents,
		logger:      logger_i.NewLogger("MCP"),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler is mounted at /mcp by the API server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}
