package review

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reviewsearch/internal/domain"
)

// Normalizer turns raw index hits into ReviewRecords.
type Normalizer struct {
	products domain.ProductExtractor
	labeler  domain.SentimentLabeler
}

// NewNormalizer creates a Normalizer. A nil extractor defaults to the regex heuristic.
// A nil labeler leaves unlabeled reviews Neutral.
func NewNormalizer(products domain.ProductExtractor, labeler domain.SentimentLabeler) *Normalizer {
	if products == nil {
		products = NewRegexExtractor()
	}
	return &Normalizer{products: products, labeler: labeler}
}

// Normalize maps each hit to a ReviewRecord, preserving order and substituting
// defaults for missing fields. It never fails.
func (n *Normalizer) Normalize(hits []domain.Hit) []domain.ReviewRecord {
	records := make([]domain.ReviewRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, n.record(h))
	}
	return records
}

func (n *Normalizer) record(h domain.Hit) domain.ReviewRecord {
	text := stringField(h.Payload, "text")
	if strings.TrimSpace(text) == "" {
		text = domain.DefaultText
	}
	category := stringField(h.Payload, "category")
	if strings.TrimSpace(category) == "" {
		category = domain.DefaultCategory
	}

	rawSentiment := stringField(h.Payload, "sentiment")
	var sentiment domain.Sentiment
	if strings.TrimSpace(rawSentiment) == "" && n.labeler != nil && text != domain.DefaultText {
		sentiment = n.labeler.Label(text)
	} else {
		sentiment = NormalizeSentiment(rawSentiment)
	}

	product := domain.UnknownProduct
	if text != domain.DefaultText {
		product = n.products.Extract(text)
	}

	return domain.ReviewRecord{
		ID:        h.ID,
		Score:     h.Score,
		Text:      text,
		Sentiment: sentiment,
		Category:  category,
		Rating:    ParseRating(h.Payload["rating"]),
		Product:   product,
	}
}

// NormalizeSentiment maps a raw label of any casing onto the canonical set.
// Labels that name neither polarity map to Neutral.
func NormalizeSentiment(raw string) domain.Sentiment {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "POSITIVE"):
		return domain.Positive
	case strings.Contains(upper, "NEGATIVE"):
		return domain.Negative
	default:
		return domain.Neutral
	}
}

// ParseRating coerces a payload rating into a number. Absent, non-numeric and
// non-finite values yield nil.
func ParseRating(v any) *float64 {
	var f float64
	switch r := v.(type) {
	case float64:
		f = r
	case float32:
		f = float64(r)
	case int:
		f = float64(r)
	case int64:
		f = float64(r)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func stringField(p domain.Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
