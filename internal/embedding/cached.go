package embedding

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"reviewsearch/internal/cache"
	"reviewsearch/internal/domain"
)

// Cached memoizes query embeddings. Cache failures never fail an Embed call.
type Cached struct {
	next  domain.Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps next with a cache.
func NewCached(next domain.Embedder, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Dimension() int { return c.next.Dimension() }

// Prepare forwards to the wrapped embedder when it needs a corpus.
func (c *Cached) Prepare(corpus []string) error {
	if p, ok := c.next.(Preparer); ok {
		return p.Prepare(corpus)
	}
	return nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("embed", c.next.Name(), text)
	if data, ok := c.cache.Get(ctx, key); ok {
		if v, ok := decodeVector(data); ok {
			return v, nil
		}
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, encodeVector(v), c.ttl); err != nil {
		slog.Warn("[EmbeddingCache] set failed", slog.String("error", err.Error()))
	}
	return v, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, bool) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, true
}
