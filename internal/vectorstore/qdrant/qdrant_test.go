package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewsearch/internal/domain"
)

func newTestStorage(t *testing.T, h http.HandlerFunc) *Storage {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	s, err := NewStorage(Config{URL: server.URL, APIKey: "secret", Collection: "amazon_reviews"})
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return s
}

func TestNewStorage_RequiresEndpointAndKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{APIKey: "k"}},
		{"missing key", Config{URL: "http://localhost:6333"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStorage(tt.cfg); !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestStorage_Search(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/amazon_reviews/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("missing api-key header")
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["limit"] != float64(3) || req["with_payload"] != true {
			t.Errorf("unexpected request %v", req)
		}
		filter := req["filter"].(map[string]any)
		must := filter["must"].([]any)
		if len(must) != 2 {
			t.Errorf("expected two conditions, got %v", must)
		}
		cond := must[0].(map[string]any)
		if cond["key"] != "category" || cond["match"].(map[string]any)["value"] != "Electronics" {
			t.Errorf("unexpected condition %v", cond)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"id":7,"score":0.93,"payload":{"text":"great phone","sentiment":"POSITIVE","category":"Electronics"}},
			{"id":"0b9f2c1e-8d5a-4e8f-9a77-1c2d3e4f5a6b","score":0.81,"payload":null}
		]}`))
	})

	hits, err := s.Search(context.Background(), domain.SearchRequest{
		Vector: []float32{0.1, 0.2},
		Limit:  3,
		Filter: domain.Filter{Must: []domain.Match{{Field: "category", Value: "Electronics"}, {Field: "sentiment", Value: "POSITIVE"}}},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "7" || hits[0].Score != 0.93 || hits[0].Payload["text"] != "great phone" {
		t.Errorf("unexpected first hit %+v", hits[0])
	}
	if hits[1].ID != "0b9f2c1e-8d5a-4e8f-9a77-1c2d3e4f5a6b" || len(hits[1].Payload) != 0 {
		t.Errorf("unexpected second hit %+v", hits[1])
	}
}

func TestStorage_Search_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		unsupported bool
		dataShape   bool
	}{
		{"server error", http.StatusInternalServerError, `{"status":{"error":"boom"}}`, false, false},
		{"unindexed filter", http.StatusBadRequest, `{"status":{"error":"Bad request: Index required but not found for \"category\""}}`, true, false},
		{"malformed payload", http.StatusOK, `{"result":[{"id":1,"score":0.5,"payload":["not","an","object"]}]}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := s.Search(context.Background(), domain.SearchRequest{Vector: []float32{1}, Limit: 1})
			if !errors.Is(err, domain.ErrIndexService) {
				t.Fatalf("expected index service error, got %v", err)
			}
			if got := errors.Is(err, domain.ErrFilterUnsupported); got != tt.unsupported {
				t.Errorf("ErrFilterUnsupported = %v, want %v", got, tt.unsupported)
			}
			if got := errors.Is(err, domain.ErrDataShape); got != tt.dataShape {
				t.Errorf("ErrDataShape = %v, want %v", got, tt.dataShape)
			}
		})
	}
}

func TestStorage_Search_Unreachable(t *testing.T) {
	s, err := NewStorage(Config{URL: "http://127.0.0.1:1", APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Search(context.Background(), domain.SearchRequest{Vector: []float32{1}}); !errors.Is(err, domain.ErrIndexService) {
		t.Fatalf("expected index service error, got %v", err)
	}
}

func TestStorage_Scroll(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/amazon_reviews/points/scroll" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["limit"] != float64(500) {
			t.Errorf("unexpected limit %v", req["limit"])
		}
		if _, ok := req["filter"]; ok {
			t.Errorf("did not expect a filter")
		}
		_, _ = w.Write([]byte(`{"result":{"points":[{"id":1,"payload":{"category":"Books"}}],"next_page_offset":2}}`))
	})
	page, err := s.Scroll(context.Background(), domain.ScrollRequest{Limit: 500})
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(page.Hits) != 1 || page.Hits[0].Payload["category"] != "Books" || page.NextOffset != "2" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestStorage_Scroll_Empty(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"points":[],"next_page_offset":null}}`))
	})
	page, err := s.Scroll(context.Background(), domain.ScrollRequest{Limit: 10})
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(page.Hits) != 0 || page.NextOffset != "" {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestStorage_Scroll_Unsupported(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`404 page not found`))
	})
	_, err := s.Scroll(context.Background(), domain.ScrollRequest{Limit: 10})
	if !errors.Is(err, domain.ErrScrollUnsupported) {
		t.Fatalf("expected scroll unsupported, got %v", err)
	}
}

func TestStorage_InitAndUpsert(t *testing.T) {
	var created, upserted bool
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/amazon_reviews":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":{"error":"Not found: Collection amazon_reviews doesn't exist!"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/amazon_reviews":
			created = true
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["vectors"].(map[string]any)["size"] != float64(768) {
				t.Errorf("unexpected create request %v", req)
			}
			_, _ = w.Write([]byte(`{"result":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/amazon_reviews/points":
			upserted = true
			if r.URL.Query().Get("wait") != "true" {
				t.Errorf("expected wait=true")
			}
			var req struct {
				Points []struct {
					ID any `json:"id"`
				} `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Points) != 2 || req.Points[0].ID != float64(42) {
				t.Errorf("unexpected points %+v", req.Points)
			}
			if id, ok := req.Points[1].ID.(string); !ok || !looksLikeUUID(id) {
				t.Errorf("expected derived uuid, got %v", req.Points[1].ID)
			}
			_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()
	if err := s.Init(ctx, 768); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	err := s.Upsert(ctx, []domain.Point{
		{ID: "42", Vector: []float32{0.1}, Payload: domain.Payload{"text": "a"}},
		{ID: "row-7", Vector: []float32{0.2}, Payload: domain.Payload{"text": "b"}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !created || !upserted {
		t.Errorf("expected create and upsert calls, got created=%v upserted=%v", created, upserted)
	}
}

func TestStorage_InitDimensionMismatch(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":384,"distance":"Cosine"}}}}}`))
	})
	if err := s.Init(context.Background(), 768); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPointID(t *testing.T) {
	if got := pointID("12"); got != uint64(12) {
		t.Errorf("expected numeric id, got %v", got)
	}
	a, b := pointID("row-1"), pointID("row-1")
	if a != b {
		t.Errorf("expected deterministic ids, got %v and %v", a, b)
	}
	if !looksLikeUUID(a.(string)) {
		t.Errorf("expected uuid, got %v", a)
	}
}
