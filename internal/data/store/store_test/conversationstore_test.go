package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/data/redisStore"
	"github.com/akolanti/docqa/internal/data/store"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisConversationStore(t *testing.T) (*miniredis.Miniredis, *store.RedisConversationStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, store.NewRedisConversationStore(redisStore.NewTestStore(client))
}

// both implementations must behave the same
func conversationStores(t *testing.T) map[string]docModel.ConversationStore {
	_, redisConvs := newRedisConversationStore(t)
	return map[string]docModel.ConversationStore{
		"redis":    redisConvs,
		"inMemory": store.InitInMemoryConversationStore(),
	}
}

func conversation(id, collection string, updated time.Time) docModel.Conversation {
	return docModel.Conversation{Id: id, CollectionId: collection, Title: "title " + id, CreatedAt: updated, UpdatedAt: updated}
}

func message(convId string, i int) docModel.Message {
	role := docModel.RoleUser
	if i%2 == 1 {
		role = docModel.RoleAssistant
	}
	return docModel.Message{
		Id:             fmt.Sprintf("msg_%012d", i),
		ConversationId: convId,
		Role:           role,
		Content:        fmt.Sprintf("message %d", i),
		CreatedAt:      time.Unix(int64(i), 0).UTC(),
	}
}

func TestConversationStores_HistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	for name, convs := range conversationStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, convs.CreateConversation(ctx, conversation("conv_1", "col-1", time.Now().UTC())))
			for i := 0; i < 6; i += 2 {
				require.NoError(t, convs.AppendMessages(ctx, "conv_1", message("conv_1", i), message("conv_1", i+1)))
			}

			all, err := convs.History(ctx, "conv_1", 0)
			require.NoError(t, err)
			require.Len(t, all, 6)
			for i, m := range all {
				assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
			}

			last, err := convs.History(ctx, "conv_1", 4)
			require.NoError(t, err)
			require.Len(t, last, 4)
			assert.Equal(t, "message 2", last[0].Content)
			assert.Equal(t, docModel.RoleAssistant, last[3].Role)
		})
	}
}

func TestConversationStores_UnknownConversation(t *testing.T) {
	ctx := context.Background()
	for name, convs := range conversationStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := convs.GetConversation(ctx, "conv_missing")
			assert.ErrorIs(t, err, ragErrors.ErrNotFound)

			err = convs.AppendMessages(ctx, "conv_missing", message("conv_missing", 0))
			assert.ErrorIs(t, err, ragErrors.ErrNotFound)

			_, err = convs.History(ctx, "conv_missing", 10)
			assert.ErrorIs(t, err, ragErrors.ErrNotFound)

			assert.ErrorIs(t, convs.DeleteConversation(ctx, "conv_missing"), ragErrors.ErrNotFound)
		})
	}
}

func TestConversationStores_ListByCollectionAndDelete(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, convs := range conversationStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, convs.CreateConversation(ctx, conversation("conv_a", "col-1", base)))
			require.NoError(t, convs.CreateConversation(ctx, conversation("conv_b", "col-1", base.Add(time.Hour))))
			require.NoError(t, convs.CreateConversation(ctx, conversation("conv_c", "col-2", base)))

			list, err := convs.ListConversations(ctx, "col-1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "conv_b", list[0].Id)
			assert.Equal(t, "conv_a", list[1].Id)

			require.NoError(t, convs.DeleteConversation(ctx, "conv_b"))
			list, err = convs.ListConversations(ctx, "col-1")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "conv_a", list[0].Id)

			other, err := convs.ListConversations(ctx, "col-2")
			require.NoError(t, err)
			assert.Len(t, other, 1)
		})
	}
}

func TestConversationStores_AppendTouchesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, convs := range conversationStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, convs.CreateConversation(ctx, conversation("conv_1", "col-1", old)))
			require.NoError(t, convs.AppendMessages(ctx, "conv_1", message("conv_1", 0)))

			got, err := convs.GetConversation(ctx, "conv_1")
			require.NoError(t, err)
			assert.True(t, got.UpdatedAt.After(old))
			assert.Equal(t, old, got.CreatedAt)
		})
	}
}

func TestRedisConversationStore_TrimsAndExpires(t *testing.T) {
	mr, convs := newRedisConversationStore(t)
	ctx := context.Background()

	require.NoError(t, convs.CreateConversation(ctx, conversation("conv_1", "col-1", time.Now().UTC())))
	for i := 0; i < config.MaxStoredMessages+10; i++ {
		require.NoError(t, convs.AppendMessages(ctx, "conv_1", message("conv_1", i)))
	}

	all, err := convs.History(ctx, "conv_1", 0)
	require.NoError(t, err)
	require.Len(t, all, config.MaxStoredMessages)
	assert.Equal(t, "message 10", all[0].Content)

	assert.Equal(t, config.RedisConversationStoreTTL, mr.TTL("conv:conv_1"))
	assert.Equal(t, config.RedisConversationStoreTTL, mr.TTL("conv:conv_1:messages"))

	mr.FastForward(config.RedisConversationStoreTTL + time.Second)
	_, err = convs.GetConversation(ctx, "conv_1")
	assert.ErrorIs(t, err, ragErrors.ErrNotFound)

	list, err := convs.ListConversations(ctx, "col-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisConversationStore_MetadataSurvives(t *testing.T) {
	_, convs := newRedisConversationStore(t)
	ctx := context.Background()

	require.NoError(t, convs.CreateConversation(ctx, conversation("conv_1", "col-1", time.Now().UTC())))
	m := message("conv_1", 1)
	m.Metadata = map[string]any{"model": "gpt", "tokens_used": 42}
	require.NoError(t, convs.AppendMessages(ctx, "conv_1", m))

	got, err := convs.History(ctx, "conv_1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gpt", got[0].Metadata["model"])
	// numbers come back as float64 from JSON
	assert.Equal(t, float64(42), got[0].Metadata["tokens_used"])
}
