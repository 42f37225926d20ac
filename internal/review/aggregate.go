package review

import (
	"encoding/json"
	"sort"

	"reviewsearch/internal/domain"
)

// CategorySentiment keys the category x sentiment breakdown.
type CategorySentiment struct {
	Category  string
	Sentiment domain.Sentiment
}

// RatingSentiment keys the rating x sentiment cross-tabulation.
type RatingSentiment struct {
	Rating    float64
	Sentiment domain.Sentiment
}

// Summary holds the distributions derived from one result set.
// Optional breakdowns are nil when they do not apply.
type Summary struct {
	Total              int
	Sentiments         map[domain.Sentiment]int
	CategorySentiments map[CategorySentiment]int
	Ratings            map[float64]int
	RatingSentiments   map[RatingSentiment]int
	Keywords           map[domain.Sentiment][]KeywordCount
}

// Aggregator computes summaries. Keyword extraction is skipped when Keywords is nil.
type Aggregator struct {
	Keywords *KeywordExtractor
}

// Aggregate builds the summary for records. The empty input yields empty distributions.
func (a Aggregator) Aggregate(records []domain.ReviewRecord) Summary {
	s := Summary{
		Total:      len(records),
		Sentiments: make(map[domain.Sentiment]int),
	}
	categories := make(map[string]struct{})
	rated := 0
	for _, r := range records {
		s.Sentiments[r.Sentiment]++
		categories[r.Category] = struct{}{}
		if r.Rating != nil {
			rated++
		}
	}

	if len(categories) > 1 {
		s.CategorySentiments = make(map[CategorySentiment]int)
		for _, r := range records {
			s.CategorySentiments[CategorySentiment{Category: r.Category, Sentiment: r.Sentiment}]++
		}
	}

	if rated > 0 {
		s.Ratings = make(map[float64]int)
		s.RatingSentiments = make(map[RatingSentiment]int)
		for _, r := range records {
			if r.Rating == nil {
				continue
			}
			s.Ratings[*r.Rating]++
			s.RatingSentiments[RatingSentiment{Rating: *r.Rating, Sentiment: r.Sentiment}]++
		}
	}

	if a.Keywords != nil && len(records) > 0 {
		s.Keywords = a.Keywords.BySentiment(records)
	}
	return s
}

// Categories returns the distinct categories in the breakdown, sorted.
func (s Summary) Categories() []string {
	seen := make(map[string]struct{})
	for k := range s.CategorySentiments {
		seen[k.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

type countRow struct {
	Category  string           `json:"category,omitempty"`
	Rating    *float64         `json:"rating,omitempty"`
	Sentiment domain.Sentiment `json:"sentiment,omitempty"`
	Count     int              `json:"count"`
}

// MarshalJSON flattens the keyed breakdowns into sorted rows.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := struct {
		Total              int                                 `json:"total"`
		Sentiments         map[domain.Sentiment]int            `json:"sentiments"`
		CategorySentiments []countRow                          `json:"category_sentiments,omitempty"`
		Ratings            []countRow                          `json:"ratings,omitempty"`
		RatingSentiments   []countRow                          `json:"rating_sentiments,omitempty"`
		Keywords           map[domain.Sentiment][]KeywordCount `json:"keywords,omitempty"`
	}{
		Total:      s.Total,
		Sentiments: s.Sentiments,
		Keywords:   s.Keywords,
	}
	for k, v := range s.CategorySentiments {
		out.CategorySentiments = append(out.CategorySentiments, countRow{Category: k.Category, Sentiment: k.Sentiment, Count: v})
	}
	for k, v := range s.Ratings {
		rating := k
		out.Ratings = append(out.Ratings, countRow{Rating: &rating, Count: v})
	}
	for k, v := range s.RatingSentiments {
		rating := k.Rating
		out.RatingSentiments = append(out.RatingSentiments, countRow{Rating: &rating, Sentiment: k.Sentiment, Count: v})
	}
	sortRows(out.CategorySentiments)
	sortRows(out.Ratings)
	sortRows(out.RatingSentiments)
	return json.Marshal(out)
}

func sortRows(rows []countRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Rating != nil && b.Rating != nil && *a.Rating != *b.Rating {
			return *a.Rating < *b.Rating
		}
		return a.Sentiment < b.Sentiment
	})
}
