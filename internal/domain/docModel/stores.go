package docModel

import (
	"context"
	"io"
)

// Stores return ragErrors.ErrNotFound (wrapped) for missing records.

type CollectionStore interface {
	CreateCollection(ctx context.Context, c Collection) error
	GetCollection(ctx context.Context, id string) (Collection, error)
	ListCollections(ctx context.Context) ([]Collection, error)
	UpdateCollection(ctx context.Context, c Collection) error
	DeleteCollection(ctx context.Context, id string) error
}

type DocumentStore interface {
	CreateDocument(ctx context.Context, d Document) error
	GetDocument(ctx context.Context, id string) (Document, error)
	ListDocuments(ctx context.Context, collectionId string) ([]Document, error)
	UpdateDocument(ctx context.Context, d Document) error
	DeleteDocument(ctx context.Context, id string) error
}

type ChunkStore interface {
	// SaveChunks replaces every chunk of the document in one transaction.
	SaveChunks(ctx context.Context, documentId string, chunks []Chunk) error
	ListChunks(ctx context.Context, documentId string) ([]Chunk, error)
	DeleteChunks(ctx context.Context, documentId string) error
}

type ConversationStore interface {
	CreateConversation(ctx context.Context, c Conversation) error
	GetConversation(ctx context.Context, id string) (Conversation, error)
	ListConversations(ctx context.Context, collectionId string) ([]Conversation, error)
	AppendMessages(ctx context.Context, conversationId string, msgs ...Message) error
	// History returns at most limit of the newest messages, oldest first.
	History(ctx context.Context, conversationId string, limit int) ([]Message, error)
	DeleteConversation(ctx context.Context, id string) error
}

// BlobStore holds raw uploaded bytes keyed by document id.
type BlobStore interface {
	Save(ctx context.Context, documentId string, filename string, r io.Reader) (path string, size int64, err error)
	Delete(ctx context.Context, path string) error
}
