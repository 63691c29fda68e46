package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

type Options struct {
	Addr     string
	Password string
	// DB selects one of redis' numbered databases, see config.RedisJobStore.
	DB int
}

// Connect returns a store for one redis database, or an error if redis does
// not answer a ping. Callers fall back to the in-memory stores on error.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	log := logger_i.NewLogger("Redis Store").With("db", opts.DB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis at %s is offline: %w", opts.Addr, err)
	}

	log.Info("Redis store init successfully")
	return &Store{client: client, Type: opts.DB, logger: log}, nil
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis store")
	return s.client.Close()
}

func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("Redis Store"),
	}
}
