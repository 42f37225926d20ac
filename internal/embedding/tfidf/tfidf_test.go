package tfidf

import (
	"context"
	"errors"
	"math"
	"testing"

	"reviewsearch/internal/domain"
)

func TestEmbedder_NotPrepared(t *testing.T) {
	e := NewEmbedder(nil)
	if _, err := e.Embed(context.Background(), "battery"); !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := NewEmbedder(map[string]struct{}{"the": {}})
	corpus := []string{"the battery lasts", "the screen cracked", "battery died"}
	if err := e.Prepare(corpus); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if e.Dimension() != 5 {
		t.Errorf("expected 5 terms, got %d", e.Dimension())
	}
	v, err := e.Embed(context.Background(), "battery battery")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	var norm float64
	nonZero := 0
	for _, x := range v {
		norm += float64(x) * float64(x)
		if x != 0 {
			nonZero++
		}
	}
	if math.Abs(norm-1) > 1e-5 || nonZero != 1 {
		t.Errorf("expected a unit vector with one component, got %v", v)
	}

	zero, _ := e.Embed(context.Background(), "unrelated words")
	for _, x := range zero {
		if x != 0 {
			t.Fatalf("expected zero vector for out-of-vocabulary text, got %v", zero)
		}
	}
}

func TestEmbedder_PrepareEmpty(t *testing.T) {
	if err := NewEmbedder(nil).Prepare(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
}
