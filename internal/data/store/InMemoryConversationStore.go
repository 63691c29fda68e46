package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
)

type conversationEntry struct {
	conv     docModel.Conversation
	messages []docModel.Message
}

// InMemoryConversationStore is the fallback when redis is offline. Nothing
// expires; only the newest config.MaxStoredMessages per conversation are kept.
type InMemoryConversationStore struct {
	lock  *sync.RWMutex
	convs map[string]*conversationEntry
}

func InitInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		lock:  new(sync.RWMutex),
		convs: make(map[string]*conversationEntry),
	}
}

func (store *InMemoryConversationStore) CreateConversation(ctx context.Context, c docModel.Conversation) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	store.convs[c.Id] = &conversationEntry{conv: c}
	return nil
}

func (store *InMemoryConversationStore) GetConversation(ctx context.Context, id string) (docModel.Conversation, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	e, ok := store.convs[id]
	if !ok {
		return docModel.Conversation{}, conversationNotFound("get conversation", id)
	}
	return e.conv, nil
}

func (store *InMemoryConversationStore) ListConversations(ctx context.Context, collectionId string) ([]docModel.Conversation, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	var out []docModel.Conversation
	for _, e := range store.convs {
		if e.conv.CollectionId == collectionId {
			out = append(out, e.conv)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (store *InMemoryConversationStore) AppendMessages(ctx context.Context, conversationId string, msgs ...docModel.Message) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	e, ok := store.convs[conversationId]
	if !ok {
		return conversationNotFound("append messages", conversationId)
	}
	e.messages = append(e.messages, msgs...)
	if over := len(e.messages) - config.MaxStoredMessages; over > 0 {
		e.messages = append([]docModel.Message(nil), e.messages[over:]...)
	}
	e.conv.UpdatedAt = time.Now().UTC()
	return nil
}

func (store *InMemoryConversationStore) History(ctx context.Context, conversationId string, limit int) ([]docModel.Message, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	e, ok := store.convs[conversationId]
	if !ok {
		return nil, conversationNotFound("history", conversationId)
	}
	msgs := e.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]docModel.Message(nil), msgs...), nil
}

func (store *InMemoryConversationStore) DeleteConversation(ctx context.Context, id string) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	if _, ok := store.convs[id]; !ok {
		return conversationNotFound("delete conversation", id)
	}
	delete(store.convs, id)
	return nil
}

func conversationNotFound(op, id string) error {
	return ragErrors.Newf(ragErrors.NotFound, op, "conversation %s not found", id)
}

func sortNewestFirst(convs []docModel.Conversation) {
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}
