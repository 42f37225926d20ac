package domain

import "context"

// Sentiment is one of the canonical review sentiment labels.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Negative Sentiment = "Negative"
	Neutral  Sentiment = "Neutral"
)

// Sentiments lists the canonical labels in display order.
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// Defaults substituted for missing payload fields.
const (
	DefaultText     = "N/A"
	DefaultCategory = "Unknown"
	UnknownProduct  = "Unknown Product"
)

// Payload is the structured metadata stored next to a review vector.
type Payload map[string]any

// Hit is a raw record returned by the vector index, either ranked by a
// similarity search or unranked from a scroll.
type Hit struct {
	ID      string
	Score   float64
	Payload Payload
}

// ReviewRecord is a normalized review ready for aggregation and display.
type ReviewRecord struct {
	ID        string    `json:"id,omitempty"`
	Score     float64   `json:"score"`
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
	Category  string    `json:"category"`
	Rating    *float64  `json:"rating,omitempty"`
	Product   string    `json:"product"`
}

// Match is an exact-match condition on a payload field.
type Match struct {
	Field string
	Value string
}

// Filter is a conjunction of exact-match conditions. An empty filter matches everything.
type Filter struct {
	Must []Match
}

// Empty reports whether the filter has no conditions.
func (f Filter) Empty() bool { return len(f.Must) == 0 }

// Matches evaluates the filter against a payload.
func (f Filter) Matches(p Payload) bool {
	for _, m := range f.Must {
		v, ok := p[m.Field]
		if !ok {
			return false
		}
		s, ok := v.(string)
		if !ok || s != m.Value {
			return false
		}
	}
	return true
}

// SearchRequest is a top-K similarity query.
type SearchRequest struct {
	Vector []float32
	Limit  int
	Filter Filter
}

// ScrollRequest is an unranked bulk fetch.
type ScrollRequest struct {
	Limit  int
	Filter Filter
	Offset string
}

// ScrollPage is one page of a scroll; NextOffset is empty on the last page.
type ScrollPage struct {
	Hits       []Hit
	NextOffset string
}

// Point is a vector and payload to be stored in the index.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Embedder converts free text into a fixed-length vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is a store of review vectors supporting similarity search and bulk scroll.
// Implementations return ErrFilterUnsupported or ErrScrollUnsupported when a
// capability is missing.
type VectorIndex interface {
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
	Scroll(ctx context.Context, req ScrollRequest) (ScrollPage, error)
}

// IndexWriter is implemented by indexes that accept new points.
type IndexWriter interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
}

// ProductExtractor infers a product name from review text.
type ProductExtractor interface {
	Name() string
	Extract(text string) string
}

// SentimentLabeler infers a sentiment from text when no label is stored.
type SentimentLabeler interface {
	Label(text string) Sentiment
}
