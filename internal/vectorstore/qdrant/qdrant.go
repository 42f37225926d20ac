package qdrant

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviewsearch/internal/domain"
)

// Storage is a minimal REST client to a Qdrant collection.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	limiter    *rate.Limiter
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// NewStorage validates the connection settings. Both URL and API key are required.
func NewStorage(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, domain.Errorf(domain.ErrConfiguration, "qdrant", "endpoint URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.Errorf(domain.ErrConfiguration, "qdrant", "API key is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "amazon_reviews"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return s, nil
}

// Init creates the collection with cosine distance if it does not exist.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.Errorf(domain.ErrConfiguration, "qdrant init", "invalid dimension %d", dimension)
	}
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, &info)
	if err == nil {
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dimension {
			return domain.Errorf(domain.ErrConfiguration, "qdrant init", "collection %s has vector size %d, embedder produces %d", s.collection, size, dimension)
		}
		return nil
	}
	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusNotFound {
		return domain.Wrap(domain.ErrIndexService, "qdrant init", err)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return domain.Wrap(domain.ErrIndexService, "qdrant init", s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil))
}

// Upsert stores points and waits for them to be indexed.
func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	wire := make([]map[string]any, len(points))
	for i, p := range points {
		wire[i] = map[string]any{
			"id":      pointID(p.ID),
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": wire}
	return domain.Wrap(domain.ErrIndexService, "qdrant upsert", s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil))
}

type wirePoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload json.RawMessage `json:"payload"`
}

// Search returns the top hits for the vector in the service's relevance order.
func (s *Storage) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Hit, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	body := map[string]any{
		"vector":       req.Vector,
		"limit":        limit,
		"with_payload": true,
	}
	if !req.Filter.Empty() {
		body["filter"] = wireFilter(req.Filter)
	}
	var resp struct {
		Result []wirePoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, classify("qdrant search", err)
	}
	hits, err := toHits(resp.Result)
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexService, "qdrant search", err)
	}
	return hits, nil
}

// Scroll returns one unranked page of stored points.
func (s *Storage) Scroll(ctx context.Context, req domain.ScrollRequest) (domain.ScrollPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if !req.Filter.Empty() {
		body["filter"] = wireFilter(req.Filter)
	}
	if req.Offset != "" {
		body["offset"] = pointID(req.Offset)
	}
	var resp struct {
		Result struct {
			Points         []wirePoint     `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), body, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusMethodNotAllowed) && !se.collectionMissing() {
			return domain.ScrollPage{}, domain.Wrap(domain.ErrIndexService, "qdrant scroll", fmt.Errorf("%w: %v", domain.ErrScrollUnsupported, err))
		}
		return domain.ScrollPage{}, classify("qdrant scroll", err)
	}
	hits, err := toHits(resp.Result.Points)
	if err != nil {
		return domain.ScrollPage{}, domain.Wrap(domain.ErrIndexService, "qdrant scroll", err)
	}
	return domain.ScrollPage{Hits: hits, NextOffset: rawID(resp.Result.NextPageOffset)}, nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func wireFilter(f domain.Filter) map[string]any {
	must := make([]map[string]any, len(f.Must))
	for i, m := range f.Must {
		must[i] = map[string]any{
			"key":   m.Field,
			"match": map[string]any{"value": m.Value},
		}
	}
	return map[string]any{"must": must}
}

func toHits(points []wirePoint) ([]domain.Hit, error) {
	hits := make([]domain.Hit, 0, len(points))
	for _, p := range points {
		payload := domain.Payload{}
		if len(p.Payload) > 0 && string(p.Payload) != "null" {
			if err := json.Unmarshal(p.Payload, &payload); err != nil {
				return nil, &domain.Error{Kind: domain.ErrDataShape, Op: "decode payload", Err: err}
			}
		}
		hits = append(hits, domain.Hit{ID: rawID(p.ID), Score: p.Score, Payload: payload})
	}
	return hits, nil
}

// rawID renders a numeric or UUID point id as a string; null yields "".
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

// pointID converts a record id into a form Qdrant accepts: unsigned integers
// pass through, anything else becomes a name-derived UUID.
func pointID(id string) any {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return n
	}
	if looksLikeUUID(id) {
		return id
	}
	h := sha1.Sum([]byte(id))
	h[6] = (h[6] & 0x0f) | 0x50
	h[8] = (h[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", h[0:4], h[4:6], h[6:8], h[8:10], h[10:16])
}

func looksLikeUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return false
			}
		}
	}
	return true
}

type statusError struct {
	method string
	url    string
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %s: %s", e.method, e.url, e.status, e.body)
}

func (e *statusError) collectionMissing() bool {
	return strings.Contains(strings.ToLower(e.body), "not found: collection")
}

// classify maps an HTTP failure to an index error, flagging filters the
// service refuses to evaluate.
func classify(op string, err error) error {
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusBadRequest {
		body := strings.ToLower(se.body)
		if strings.Contains(body, "index required") {
			return domain.Wrap(domain.ErrIndexService, op, fmt.Errorf("%w: %v", domain.ErrFilterUnsupported, err))
		}
	}
	return domain.Wrap(domain.ErrIndexService, op, err)
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("api-key", s.apiKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{method: method, url: url, code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.Error{Kind: domain.ErrDataShape, Op: "decode " + method + " response", Err: err}
	}
	return nil
}
