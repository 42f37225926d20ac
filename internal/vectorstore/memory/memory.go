package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"

	"reviewsearch/internal/domain"
)

// Storage is an in-memory vector index using brute-force cosine similarity.
// It serves offline datasets and tests.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	points    []domain.Point
	byID      map[string]int
}

func NewStorage() *Storage { return &Storage{byID: make(map[string]int)} }

// Init sets the vector size and drops any stored points.
func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.Errorf(domain.ErrConfiguration, "memory init", "invalid dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.points = nil
	s.byID = make(map[string]int)
	return nil
}

// Upsert inserts points or replaces those with a known ID.
func (s *Storage) Upsert(_ context.Context, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return domain.Wrap(domain.ErrIndexService, "memory upsert", errors.New("vector dimension mismatch"))
		}
	}
	for _, p := range points {
		if p.ID == "" {
			p.ID = strconv.Itoa(len(s.points))
		}
		if i, ok := s.byID[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.byID[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

// Search ranks matching points by cosine similarity. Equal scores keep insertion order.
func (s *Storage) Search(_ context.Context, req domain.SearchRequest) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topK := req.Limit
	if topK <= 0 {
		topK = 10
	}
	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, p := range s.points {
		if !req.Filter.Matches(p.Payload) {
			continue
		}
		candidates = append(candidates, scored{i, cosine(p.Vector, req.Vector)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > len(candidates) {
		topK = len(candidates)
	}
	hits := make([]domain.Hit, 0, topK)
	for _, c := range candidates[:topK] {
		p := s.points[c.idx]
		hits = append(hits, domain.Hit{ID: p.ID, Score: c.score, Payload: clonePayload(p.Payload)})
	}
	return hits, nil
}

// Scroll pages through matching points in insertion order. Offset is the
// position of the first point to return.
func (s *Storage) Scroll(_ context.Context, req domain.ScrollRequest) (domain.ScrollPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if req.Offset != "" {
		n, err := strconv.Atoi(req.Offset)
		if err != nil || n < 0 {
			return domain.ScrollPage{}, domain.Errorf(domain.ErrIndexService, "memory scroll", "invalid offset %q", req.Offset)
		}
		start = n
	}
	var page domain.ScrollPage
	for i := start; i < len(s.points); i++ {
		p := s.points[i]
		if !req.Filter.Matches(p.Payload) {
			continue
		}
		if len(page.Hits) == limit {
			page.NextOffset = strconv.Itoa(i)
			break
		}
		page.Hits = append(page.Hits, domain.Hit{ID: p.ID, Payload: clonePayload(p.Payload)})
	}
	return page, nil
}

// Len returns the number of stored points.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clonePayload(p domain.Payload) domain.Payload {
	out := make(domain.Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
