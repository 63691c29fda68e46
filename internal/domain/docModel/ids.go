package docModel

import (
	"strings"

	"github.com/akolanti/docqa/internal/config"
	"github.com/google/uuid"
)

// NewShortId returns prefix followed by 12 random hex characters.
func NewShortId(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:config.ShortIdLength]
}

func NewDocumentId() string { return NewShortId(config.DocumentIdPrefix) }

func NewConversationId() string { return NewShortId(config.ConversationIdPrefix) }

func NewMessageId() string { return NewShortId(config.MessageIdPrefix) }

func NewJobId() string { return NewShortId(config.JobIdPrefix) }
