package handlers

import (
	"context"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/rag"
	"github.com/akolanti/docqa/pkg/logger_i"
)

type JobQueue interface {
	SubmitIngest(ctx context.Context, doc docModel.Document) (jobModel.Job, error)
	SubmitDeleteDocument(ctx context.Context, doc docModel.Document) (jobModel.Job, error)
	SubmitDeleteCollection(ctx context.Context, collectionId string) (jobModel.Job, error)
	GetJob(ctx context.Context, id string) (jobModel.Job, bool)
}

// FormatChecker reports whether an extractor is registered for an extension.
type FormatChecker interface {
	Supports(ext string) bool
}

type UploadPolicy struct {
	MaxBytes          int64
	AllowedExtensions []string
}

type Deps struct {
	Collections   docModel.CollectionStore
	Documents     docModel.DocumentStore
	Chunks        docModel.ChunkStore
	Conversations docModel.ConversationStore
	RAG           rag.Service
	Jobs          JobQueue
	Formats       FormatChecker
	Uploads       UploadPolicy
	// Usage, if set, is reported next to the index stats.
	Usage   func() any
	Version string
}

type Handlers struct {
	collections   docModel.CollectionStore
	documents     docModel.DocumentStore
	chunks        docModel.ChunkStore
	conversations docModel.ConversationStore
	rag           rag.Service
	jobs          JobQueue
	formats       FormatChecker
	uploads       UploadPolicy
	usage         func() any
	version       string
	logger        *logger_i.Logger
}

func New(d Deps) *Handlers {
	return &Handlers{
		collections:   d.Collections,
		documents:     d.Documents,
		chunks:        d.Chunks,
		conversations: d.Conversations,
		rag:           d.RAG,
		jobs:          d.Jobs,
		formats:       d.Formats,
		uploads:       d.Uploads,
		usage:         d.Usage,
		version:       d.Version,
		logger:        logger_i.NewLogger("Handlers"),
	}
}
