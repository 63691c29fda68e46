package docModel

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatTXT  Format = "txt"
	FormatRTF  Format = "rtf"
	FormatODT  Format = "odt"
)

// FormatOf maps a file name or bare extension to a Format. Unknown
// extensions come back as-is so callers can report them.
func FormatOf(name string) Format {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = name
	}
	return Format(strings.ToLower(strings.TrimPrefix(ext, ".")))
}

type Collection struct {
	Id            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DocumentCount int       `json:"document_count"`
}

type Document struct {
	Id           string         `json:"id"`
	CollectionId string         `json:"collection_id"`
	Filename     string         `json:"filename"`
	Format       Format         `json:"format"`
	FilePath     string         `json:"-"`
	SizeBytes    int64          `json:"size_bytes"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	PageCount    int            `json:"page_count"`
	WordCount    int            `json:"word_count"`
	ChunkCount   int            `json:"chunk_count"`
	Indexed      bool           `json:"indexed"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
}

type Chunk struct {
	Id             string    `json:"id"`
	DocumentId     string    `json:"document_id"`
	Index          int       `json:"chunk_index"`
	Text           string    `json:"text"`
	CharStart      int       `json:"char_start"`
	CharEnd        int       `json:"char_end"`
	Locator        string    `json:"locator,omitempty"`
	VectorId       string    `json:"vector_id,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChunkKey is the shared identity of a chunk row and its vector record.
func ChunkKey(documentId string, index int) string {
	return documentId + "_chunk_" + strconv.Itoa(index)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Conversation struct {
	Id           string    `json:"id"`
	CollectionId string    `json:"collection_id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Message struct {
	Id             string         `json:"id"`
	ConversationId string         `json:"conversation_id"`
	Role           Role           `json:"role"`
	Content        string         `json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
