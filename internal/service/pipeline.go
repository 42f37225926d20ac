package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"reviewsearch/internal/domain"
	"reviewsearch/internal/review"
)

// Filters maps payload fields to exact-match values. Empty and "All" values are ignored.
type Filters map[string]string

// AllValues is the filter value meaning "no restriction".
const AllValues = "All"

// Options tunes the pipeline.
type Options struct {
	// Limit is the default number of search hits.
	Limit int
	// SampleLimit is the default number of records fetched by SampleCategories.
	SampleLimit int
	// ClientSideFilter skips server-side category filtering on bulk fetches.
	ClientSideFilter bool
	// Dimension sizes the zero vector used when the index cannot scroll.
	// Zero falls back to the embedder's dimension.
	Dimension int
	// Highlights is the number of representative sentences per insight.
	Highlights int
}

// Insight is a normalized, aggregated result set ready for display.
type Insight struct {
	Query      string                `json:"query,omitempty"`
	Filters    Filters               `json:"filters,omitempty"`
	Records    []domain.ReviewRecord `json:"records"`
	Summary    review.Summary        `json:"summary"`
	Highlights []string              `json:"highlights,omitempty"`
}

// Pipeline turns a query into ranked, normalized and aggregated reviews.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	embedder    domain.Embedder
	index       domain.VectorIndex
	normalizer  *review.Normalizer
	aggregator  review.Aggregator
	highlighter *review.Highlighter
	opts        Options
}

// New wires a pipeline. A nil normalizer uses the regex product heuristic and
// no sentiment inference.
func New(embedder domain.Embedder, index domain.VectorIndex, normalizer *review.Normalizer, aggregator review.Aggregator, opts Options) (*Pipeline, error) {
	if embedder == nil {
		return nil, domain.Errorf(domain.ErrConfiguration, "pipeline", "embedding provider is required")
	}
	if index == nil {
		return nil, domain.Errorf(domain.ErrConfiguration, "pipeline", "vector index is required")
	}
	if normalizer == nil {
		normalizer = review.NewNormalizer(nil, nil)
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = 500
	}
	if opts.Highlights < 0 {
		opts.Highlights = 0
	}
	return &Pipeline{
		embedder:    embedder,
		index:       index,
		normalizer:  normalizer,
		aggregator:  aggregator,
		highlighter: review.NewHighlighter(),
		opts:        opts,
	}, nil
}

// BuildFilter converts filters into a conjunction, ordered by field name.
func BuildFilter(filters Filters) domain.Filter {
	var f domain.Filter
	for field, value := range filters {
		value = strings.TrimSpace(value)
		if field == "" || value == "" || strings.EqualFold(value, AllValues) {
			continue
		}
		f.Must = append(f.Must, domain.Match{Field: field, Value: value})
	}
	sort.Slice(f.Must, func(i, j int) bool { return f.Must[i].Field < f.Must[j].Field })
	return f
}

// Search embeds the query and returns the index's top hits unchanged. An empty
// query fails before any outbound call. Provider and index failures are not retried.
func (p *Pipeline) Search(ctx context.Context, query string, filters Filters, limit int) ([]domain.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "search", "query must not be empty")
	}
	if limit <= 0 {
		limit = p.opts.Limit
	}
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "search", err)
	}
	filter := BuildFilter(filters)
	hits, err := p.index.Search(ctx, domain.SearchRequest{Vector: vector, Limit: limit, Filter: filter})
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexService, "search", err)
	}
	slog.Debug("[Pipeline] search",
		slog.String("embedder", p.embedder.Name()),
		slog.Int("limit", limit),
		slog.Int("conditions", len(filter.Must)),
		slog.Int("hits", len(hits)))
	return hits, nil
}

// Normalize maps raw hits onto review records.
func (p *Pipeline) Normalize(hits []domain.Hit) []domain.ReviewRecord {
	return p.normalizer.Normalize(hits)
}

// Aggregate summarizes records.
func (p *Pipeline) Aggregate(records []domain.ReviewRecord) review.Summary {
	return p.aggregator.Aggregate(records)
}

// Insights runs search, normalization and aggregation for one query.
func (p *Pipeline) Insights(ctx context.Context, query string, filters Filters, limit int) (*Insight, error) {
	hits, err := p.Search(ctx, query, filters, limit)
	if err != nil {
		return nil, err
	}
	return p.insight(strings.TrimSpace(query), filters, p.Normalize(hits)), nil
}

// Overview aggregates a bulk sample of stored reviews without a query.
func (p *Pipeline) Overview(ctx context.Context, limit int, category string) (*Insight, error) {
	records, err := p.SampleCategories(ctx, limit, category)
	if err != nil {
		return nil, err
	}
	return p.insight("", Filters{"category": category}, records), nil
}

func (p *Pipeline) insight(query string, filters Filters, records []domain.ReviewRecord) *Insight {
	in := &Insight{
		Query:   query,
		Filters: activeFilters(filters),
		Records: records,
		Summary: p.Aggregate(records),
	}
	if p.opts.Highlights > 0 {
		in.Highlights = p.highlighter.Highlights(records, p.opts.Highlights)
	}
	return in
}

func activeFilters(filters Filters) Filters {
	f := BuildFilter(filters)
	if f.Empty() {
		return nil
	}
	out := make(Filters, len(f.Must))
	for _, m := range f.Must {
		out[m.Field] = m.Value
	}
	return out
}

// SampleCategories fetches up to limit stored reviews without ranking them.
// A category other than "" or "All" restricts the sample: server-side when the
// index supports payload filters, otherwise by scanning an unfiltered page
// client-side, which costs O(limit) and may return fewer records.
func (p *Pipeline) SampleCategories(ctx context.Context, limit int, category string) ([]domain.ReviewRecord, error) {
	if limit <= 0 {
		limit = p.opts.SampleLimit
	}
	filter := BuildFilter(Filters{"category": category})
	if filter.Empty() {
		hits, err := p.bulk(ctx, limit, filter)
		if err != nil {
			return nil, err
		}
		return p.Normalize(hits), nil
	}

	if !p.opts.ClientSideFilter {
		hits, err := p.bulk(ctx, limit, filter)
		if err == nil {
			return p.Normalize(hits), nil
		}
		if !errors.Is(err, domain.ErrFilterUnsupported) {
			return nil, err
		}
		slog.Debug("[Pipeline] index rejected category filter, filtering client-side", slog.String("error", err.Error()))
	}

	hits, err := p.bulk(ctx, limit, domain.Filter{})
	if err != nil {
		return nil, err
	}
	want := filter.Must[0].Value
	records := p.Normalize(hits)
	kept := records[:0]
	for _, r := range records {
		if r.Category == want {
			kept = append(kept, r)
		}
	}
	slog.Debug("[Pipeline] client-side category filter",
		slog.String("category", want),
		slog.Int("scanned", len(records)),
		slog.Int("kept", len(kept)))
	return kept, nil
}

// bulk scrolls until limit hits are collected or the index runs out. When the
// index cannot scroll it falls back to a zero-vector similarity search.
func (p *Pipeline) bulk(ctx context.Context, limit int, filter domain.Filter) ([]domain.Hit, error) {
	hits, err := p.scroll(ctx, limit, filter)
	if err == nil {
		return hits, nil
	}
	if !errors.Is(err, domain.ErrScrollUnsupported) {
		return nil, err
	}
	dim := p.opts.Dimension
	if dim <= 0 {
		dim = p.embedder.Dimension()
	}
	if dim <= 0 {
		return nil, domain.Errorf(domain.ErrConfiguration, "sample", "scroll unsupported and vector dimension unknown")
	}
	slog.Warn("[Pipeline] index cannot scroll, sampling with a zero-vector search", slog.Int("dimension", dim))
	hits, err = p.index.Search(ctx, domain.SearchRequest{Vector: make([]float32, dim), Limit: limit, Filter: filter})
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexService, "sample", err)
	}
	return hits, nil
}

func (p *Pipeline) scroll(ctx context.Context, limit int, filter domain.Filter) ([]domain.Hit, error) {
	var hits []domain.Hit
	offset := ""
	for len(hits) < limit {
		page, err := p.index.Scroll(ctx, domain.ScrollRequest{Limit: limit - len(hits), Filter: filter, Offset: offset})
		if err != nil {
			return nil, domain.Wrap(domain.ErrIndexService, "sample", err)
		}
		hits = append(hits, page.Hits...)
		if page.NextOffset == "" || len(page.Hits) == 0 {
			break
		}
		offset = page.NextOffset
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []domain.Hit{}
	}
	return hits, nil
}
