package domain

import (
	"context"
	"errors"
	"testing"
)

func TestWrap_MatchesKindAndCause(t *testing.T) {
	err := Wrap(ErrIndexService, "search", context.DeadlineExceeded)
	if !errors.Is(err, ErrIndexService) {
		t.Errorf("expected ErrIndexService, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if errors.Is(err, ErrEmbedding) {
		t.Errorf("did not expect ErrEmbedding")
	}
}

func TestWrap_NilAndSameKind(t *testing.T) {
	if Wrap(ErrEmbedding, "embed", nil) != nil {
		t.Fatal("expected nil for nil cause")
	}
	inner := Errorf(ErrEmbedding, "embed", "boom")
	if got := Wrap(ErrEmbedding, "search", inner); got != inner {
		t.Errorf("expected same-kind error to pass through, got %v", got)
	}
}

func TestFilter_Matches(t *testing.T) {
	f := Filter{Must: []Match{{Field: "category", Value: "Books"}, {Field: "sentiment", Value: "POSITIVE"}}}
	tests := []struct {
		name    string
		payload Payload
		want    bool
	}{
		{"all match", Payload{"category": "Books", "sentiment": "POSITIVE"}, true},
		{"one differs", Payload{"category": "Books", "sentiment": "NEGATIVE"}, false},
		{"missing field", Payload{"category": "Books"}, false},
		{"non-string", Payload{"category": 3, "sentiment": "POSITIVE"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(tt.payload); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
	if !(Filter{}).Matches(Payload{}) {
		t.Error("empty filter should match everything")
	}
}
