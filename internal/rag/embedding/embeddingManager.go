package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
)

// Provider is a remote embedding service. Errors should be *ragErrors.Error
// with kind EmbeddingRemote or EmbeddingUnavailable so the client can decide
// whether to retry or truncate.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Embedder never returns an error for a text: a nil vector means the text
// could not be embedded. Every non-nil vector has length Dimension().
type Embedder interface {
	EmbedOne(ctx context.Context, text string) []float32
	EmbedBatch(ctx context.Context, texts []string, batchSize int) [][]float32
	EstimateCost(texts []string) CostEstimate
	Usage() Usage
	Model() string
	Dimension() int
}

type Usage struct {
	Requests int     `json:"requests"`
	Tokens   int     `json:"tokens"`
	Cost     float64 `json:"cost_usd"`
}

type CostEstimate struct {
	TextCount        int     `json:"text_count"`
	Characters       int     `json:"characters"`
	Tokens           int     `json:"estimated_tokens"`
	Cost             float64 `json:"estimated_cost_usd"`
	Model            string  `json:"model"`
	PricePer1KTokens float64 `json:"price_per_1k_tokens"`
}

type Client struct {
	provider      Provider
	dimension     int
	maxAttempts   int
	retryInterval time.Duration
	batchDelay    time.Duration
	maxChars      int

	mu    sync.Mutex
	usage Usage

	logger *logger_i.Logger
}

type Option func(*Client)

func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

func WithBatchDelay(d time.Duration) Option {
	return func(c *Client) { c.batchDelay = d }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewClient accepts a nil provider; every call then yields nil vectors and
// logs EmbeddingUnavailable.
func NewClient(p Provider, dimension int, opts ...Option) *Client {
	c := &Client{
		provider:      p,
		dimension:     dimension,
		maxAttempts:   config.EmbeddingMaxAttempts,
		retryInterval: config.EmbeddingRetryInterval,
		batchDelay:    config.EmbeddingBatchDelay,
		maxChars:      config.EmbeddingMaxInputChars,
		logger:        logger_i.NewLogger("Embedding Client"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Model() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Model()
}

func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) Available() bool {
	return c.provider != nil
}

func (c *Client) EmbedOne(ctx context.Context, text string) []float32 {
	log := c.logger.WithContext(ctx)
	cleaned := clean(text)
	if cleaned == "" {
		return nil
	}
	if c.provider == nil {
		log.Warn("embedding skipped", "error", ragErrors.ErrEmbeddingUnavailable)
		return nil
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	truncated := false
	var out []float32
	op := func() error {
		vecs, err := c.provider.Embed(ctx, []string{cleaned})
		if err != nil {
			switch {
			case ragErrors.IsTooLong(err):
				if truncated || utf8.RuneCountInString(cleaned) <= c.maxChars {
					return backoff.Permanent(err)
				}
				cleaned = truncateRunes(cleaned, c.maxChars)
				truncated = true
				log.Debug("input too long, truncated", "chars", c.maxChars)
				return err
			case errors.Is(err, ragErrors.ErrEmbeddingUnavailable):
				return backoff.Permanent(err)
			case ragErrors.IsRateLimited(err):
				log.Warn("embedding rate limited, backing off")
			}
			return err
		}
		if len(vecs) != 1 || len(vecs[0]) != c.dimension {
			return backoff.Permanent(c.dimensionError(vecs))
		}
		out = vecs[0]
		return nil
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		log.Warn("embedding failed", "error", err)
		return nil
	}
	c.record(1, []string{cleaned})
	return out
}

// EmbedBatch sends one request per batch, waiting batchDelay between them. A
// failed batch is retried text by text so one bad input cannot sink its
// neighbours. The result is aligned with texts.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, batchSize int) [][]float32 {
	log := c.logger.WithContext(ctx)
	if batchSize <= 0 {
		batchSize = config.EmbeddingBatchSize
	}
	out := make([][]float32, len(texts))
	if c.provider == nil {
		log.Warn("batch embedding skipped", "texts", len(texts), "error", ragErrors.ErrEmbeddingUnavailable)
		return out
	}

	for start := 0; start < len(texts); start += batchSize {
		if start > 0 && !sleepCtx(ctx, c.batchDelay) {
			log.Warn("batch embedding interrupted", "embedded_until", start, "error", ctx.Err())
			return out
		}
		end := min(start+batchSize, len(texts))

		var positions []int
		var batch []string
		for i := start; i < end; i++ {
			if cl := clean(texts[i]); cl != "" {
				positions = append(positions, i)
				batch = append(batch, cl)
			}
		}
		if len(batch) == 0 {
			continue
		}

		vecs, err := c.callBatch(ctx, batch)
		if err != nil {
			log.Warn("batch failed, embedding individually", "batch_start", start, "size", len(batch), "error", err)
			for _, i := range positions {
				out[i] = c.EmbedOne(ctx, texts[i])
			}
			continue
		}

		var embedded []string
		for j, i := range positions {
			if len(vecs[j]) != c.dimension {
				log.Warn("discarding vector with wrong dimension", "index", i, "got", len(vecs[j]), "want", c.dimension)
				continue
			}
			out[i] = vecs[j]
			embedded = append(embedded, batch[j])
		}
		c.record(1, embedded)
	}
	return out
}

func (c *Client) callBatch(ctx context.Context, batch []string) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	vecs, err := c.provider.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(batch) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(batch))
	}
	return vecs, nil
}

func (c *Client) EstimateCost(texts []string) CostEstimate {
	chars := 0
	for _, t := range texts {
		chars += utf8.RuneCountInString(t)
	}
	tokens := chars / config.EmbeddingCharsPerTokenGuess
	return CostEstimate{
		TextCount:        len(texts),
		Characters:       chars,
		Tokens:           tokens,
		Cost:             tokenCost(tokens),
		Model:            c.Model(),
		PricePer1KTokens: config.EmbeddingPricePer1KTokens,
	}
}

func (c *Client) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

func (c *Client) record(requests int, embedded []string) {
	tokens := 0
	for _, t := range embedded {
		tokens += utf8.RuneCountInString(t) / config.EmbeddingCharsPerTokenGuess
	}
	cost := tokenCost(tokens)

	c.mu.Lock()
	c.usage.Requests += requests
	c.usage.Tokens += tokens
	c.usage.Cost += cost
	c.mu.Unlock()

	metrics.CaptureEmbeddingUsage(tokens, cost)
}

func (c *Client) dimensionError(vecs [][]float32) error {
	got := 0
	if len(vecs) > 0 {
		got = len(vecs[0])
	}
	return ragErrors.Newf(ragErrors.EmbeddingRemote, "embed", "expected one vector of dimension %d, got %d vectors (first dimension %d)", c.dimension, len(vecs), got)
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
}

func tokenCost(tokens int) float64 {
	return float64(tokens) / 1000 * config.EmbeddingPricePer1KTokens
}

func clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
