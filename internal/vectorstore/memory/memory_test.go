package memory

import (
	"context"
	"errors"
	"testing"

	"reviewsearch/internal/domain"
)

func seeded(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage()
	ctx := context.Background()
	if err := s.Init(ctx, 2); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	err := s.Upsert(ctx, []domain.Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: domain.Payload{"category": "Books", "text": "novel"}},
		{ID: "b", Vector: []float32{0, 1}, Payload: domain.Payload{"category": "Electronics", "text": "phone"}},
		{ID: "c", Vector: []float32{1, 1}, Payload: domain.Payload{"category": "Electronics", "text": "tablet"}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	return s
}

func TestStorage_Search(t *testing.T) {
	s := seeded(t)
	hits, err := s.Search(context.Background(), domain.SearchRequest{Vector: []float32{0, 2}, Limit: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "b" || hits[1].ID != "c" {
		t.Fatalf("unexpected ranking %+v", hits)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("expected cosine 1 for identical direction, got %f", hits[0].Score)
	}
}

func TestStorage_SearchFilter(t *testing.T) {
	s := seeded(t)
	hits, _ := s.Search(context.Background(), domain.SearchRequest{
		Vector: []float32{0, 1},
		Limit:  10,
		Filter: domain.Filter{Must: []domain.Match{{Field: "category", Value: "Books"}}},
	})
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("expected only the Books point, got %+v", hits)
	}
}

func TestStorage_Scroll(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	page, err := s.Scroll(ctx, domain.ScrollRequest{Limit: 2})
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(page.Hits) != 2 || page.NextOffset != "2" {
		t.Fatalf("unexpected first page %+v", page)
	}
	page, _ = s.Scroll(ctx, domain.ScrollRequest{Limit: 2, Offset: page.NextOffset})
	if len(page.Hits) != 1 || page.Hits[0].ID != "c" || page.NextOffset != "" {
		t.Errorf("unexpected last page %+v", page)
	}
}

func TestStorage_ScrollEmpty(t *testing.T) {
	page, err := NewStorage().Scroll(context.Background(), domain.ScrollRequest{Limit: 500})
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(page.Hits) != 0 {
		t.Errorf("expected no hits, got %d", len(page.Hits))
	}
}

func TestStorage_UpsertReplacesAndValidates(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	if err := s.Upsert(ctx, []domain.Point{{ID: "a", Vector: []float32{0, 1}, Payload: domain.Payload{"category": "Toys"}}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("expected replacement, got %d points", s.Len())
	}
	err := s.Upsert(ctx, []domain.Point{{ID: "d", Vector: []float32{1, 2, 3}}})
	if !errors.Is(err, domain.ErrIndexService) {
		t.Errorf("expected dimension mismatch error, got %v", err)
	}
}
