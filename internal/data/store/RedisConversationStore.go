package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/data/redisStore"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/pkg/logger_i"
)

/*
Layout, every key sharing config.RedisConversationStoreTTL:

	conv:{id}                 conversation JSON
	conv:{id}:messages        list of message JSON, oldest first, trimmed
	collection:{id}:convs     set of conversation ids

Any write refreshes the TTL, so an active conversation never expires.
*/

type RedisConversationStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func NewRedisConversationStore(store *redisStore.Store) *RedisConversationStore {
	return &RedisConversationStore{
		store:  store,
		ttl:    config.RedisConversationStoreTTL,
		logger: logger_i.NewLogger("ConversationStore"),
	}
}

func convKey(id string) string { return "conv:" + id }

func messagesKey(id string) string { return "conv:" + id + ":messages" }

func collectionConvsKey(id string) string { return "collection:" + id + ":convs" }

func (s *RedisConversationStore) CreateConversation(ctx context.Context, c docModel.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, convKey(c.Id), data, s.ttl); err != nil {
		return fmt.Errorf("saving conversation %s: %w", c.Id, err)
	}
	if err := s.store.SetAdd(ctx, collectionConvsKey(c.CollectionId), s.ttl, c.Id); err != nil {
		return fmt.Errorf("indexing conversation %s: %w", c.Id, err)
	}
	s.logger.WithContext(ctx).Debug("conversation created", "conversationId", c.Id)
	return nil
}

func (s *RedisConversationStore) GetConversation(ctx context.Context, id string) (docModel.Conversation, error) {
	var c docModel.Conversation
	val, err := s.store.Get(ctx, convKey(id))
	if s.store.IsNil(err) {
		return c, conversationNotFound("get conversation", id)
	} else if err != nil {
		return c, fmt.Errorf("reading conversation %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return c, fmt.Errorf("decoding conversation %s: %w", id, err)
	}
	return c, nil
}

// ListConversations drops ids whose conversation expired from the set.
func (s *RedisConversationStore) ListConversations(ctx context.Context, collectionId string) ([]docModel.Conversation, error) {
	ids, err := s.store.SetMembers(ctx, collectionConvsKey(collectionId))
	if err != nil {
		return nil, fmt.Errorf("listing conversations of %s: %w", collectionId, err)
	}
	out := make([]docModel.Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetConversation(ctx, id)
		if errors.Is(err, ragErrors.ErrNotFound) {
			_ = s.store.SetRemove(ctx, collectionConvsKey(collectionId), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *RedisConversationStore) AppendMessages(ctx context.Context, conversationId string, msgs ...docModel.Message) error {
	c, err := s.GetConversation(ctx, conversationId)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding message %s: %w", m.Id, err)
		}
		values[i] = data
	}
	if err := s.store.ListAppend(ctx, messagesKey(conversationId), config.MaxStoredMessages, s.ttl, values...); err != nil {
		return fmt.Errorf("appending to %s: %w", conversationId, err)
	}

	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, convKey(c.Id), data, s.ttl); err != nil {
		return fmt.Errorf("touching conversation %s: %w", c.Id, err)
	}
	return s.store.Expire(ctx, s.ttl, collectionConvsKey(c.CollectionId))
}

func (s *RedisConversationStore) History(ctx context.Context, conversationId string, limit int) ([]docModel.Message, error) {
	exists, err := s.store.Exists(ctx, convKey(conversationId))
	if err != nil {
		return nil, fmt.Errorf("reading conversation %s: %w", conversationId, err)
	}
	if !exists {
		return nil, conversationNotFound("history", conversationId)
	}

	raw, err := s.store.ListTail(ctx, messagesKey(conversationId), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", conversationId, err)
	}
	msgs := make([]docModel.Message, 0, len(raw))
	for _, r := range raw {
		var m docModel.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			s.logger.WithContext(ctx).Warn("skipping undecodable message", "conversationId", conversationId, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisConversationStore) DeleteConversation(ctx context.Context, id string) error {
	c, err := s.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Del(ctx, convKey(id), messagesKey(id)); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if err := s.store.SetRemove(ctx, collectionConvsKey(c.CollectionId), id); err != nil {
		return fmt.Errorf("unindexing conversation %s: %w", id, err)
	}
	s.logger.WithContext(ctx).Debug("conversation deleted", "conversationId", id)
	return nil
}
