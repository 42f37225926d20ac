package review

import (
	"encoding/json"
	"strings"
	"testing"

	"reviewsearch/internal/domain"
)

func TestAggregate_Empty(t *testing.T) {
	s := Aggregator{Keywords: NewKeywordExtractor(10, 4, nil)}.Aggregate(nil)
	if s.Total != 0 || len(s.Sentiments) != 0 {
		t.Errorf("expected empty sentiment distribution, got %+v", s.Sentiments)
	}
	if len(s.CategorySentiments) != 0 || len(s.Ratings) != 0 || len(s.RatingSentiments) != 0 || len(s.Keywords) != 0 {
		t.Errorf("expected empty optional breakdowns, got %+v", s)
	}
}

func TestAggregate_Scenario(t *testing.T) {
	n := NewNormalizer(nil, nil)
	records := n.Normalize([]domain.Hit{
		{Payload: domain.Payload{"text": "great budget phone", "sentiment": "POSITIVE", "category": "Electronics"}},
		{Payload: domain.Payload{"text": "screen cracked", "sentiment": "NEGATIVE", "category": "Electronics"}},
		{Payload: domain.Payload{"text": "a phone for dummies", "sentiment": "POSITIVE", "category": "Books"}},
	})
	s := Aggregator{}.Aggregate(records)

	if len(s.Sentiments) != 2 || s.Sentiments[domain.Positive] != 2 || s.Sentiments[domain.Negative] != 1 {
		t.Errorf("unexpected sentiment distribution: %v", s.Sentiments)
	}
	want := map[CategorySentiment]int{
		{"Electronics", domain.Positive}: 1,
		{"Electronics", domain.Negative}: 1,
		{"Books", domain.Positive}:       1,
	}
	if len(s.CategorySentiments) != len(want) {
		t.Fatalf("expected %d category rows, got %v", len(want), s.CategorySentiments)
	}
	for k, v := range want {
		if s.CategorySentiments[k] != v {
			t.Errorf("expected %v=%d, got %d", k, v, s.CategorySentiments[k])
		}
	}
	if s.Ratings != nil {
		t.Errorf("expected no rating distribution without ratings, got %v", s.Ratings)
	}
	if got := s.Categories(); len(got) != 2 || got[0] != "Books" {
		t.Errorf("unexpected categories: %v", got)
	}
}

func TestAggregate_SumEqualsTotal(t *testing.T) {
	labels := []string{"POSITIVE", "negative", "", "Positive", "other", "NEGATIVE", "positive"}
	hits := make([]domain.Hit, len(labels))
	for i, l := range labels {
		hits[i] = domain.Hit{Payload: domain.Payload{"sentiment": l}}
	}
	records := NewNormalizer(nil, nil).Normalize(hits)
	s := Aggregator{}.Aggregate(records)
	sum := 0
	for _, c := range s.Sentiments {
		sum += c
	}
	if sum != len(records) || s.Total != len(records) {
		t.Errorf("expected counts to sum to %d, got %d", len(records), sum)
	}
}

func TestAggregate_SingleCategorySkipsBreakdown(t *testing.T) {
	records := []domain.ReviewRecord{
		{Sentiment: domain.Positive, Category: "Books"},
		{Sentiment: domain.Negative, Category: "Books"},
	}
	s := Aggregator{}.Aggregate(records)
	if len(s.CategorySentiments) != 0 {
		t.Errorf("expected no category breakdown, got %v", s.CategorySentiments)
	}
}

func TestAggregate_Ratings(t *testing.T) {
	records := NewNormalizer(nil, nil).Normalize([]domain.Hit{
		{Payload: domain.Payload{"sentiment": "POSITIVE", "rating": 5.0}},
		{Payload: domain.Payload{"sentiment": "POSITIVE", "rating": "5"}},
		{Payload: domain.Payload{"sentiment": "NEGATIVE", "rating": "bad"}},
		{Payload: domain.Payload{"sentiment": "NEGATIVE", "rating": 1}},
	})
	s := Aggregator{}.Aggregate(records)
	if s.Ratings[5] != 2 || s.Ratings[1] != 1 || len(s.Ratings) != 2 {
		t.Errorf("unexpected ratings: %v", s.Ratings)
	}
	if s.RatingSentiments[RatingSentiment{5, domain.Positive}] != 2 {
		t.Errorf("unexpected rating x sentiment: %v", s.RatingSentiments)
	}
	if s.RatingSentiments[RatingSentiment{1, domain.Negative}] != 1 {
		t.Errorf("unexpected rating x sentiment: %v", s.RatingSentiments)
	}
}

func TestSummary_MarshalJSON(t *testing.T) {
	records := []domain.ReviewRecord{
		{Sentiment: domain.Positive, Category: "Books"},
		{Sentiment: domain.Negative, Category: "Toys"},
	}
	data, err := json.Marshal(Aggregator{}.Aggregate(records))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"total":2`, `"Positive":1`, `{"category":"Books","sentiment":"Positive","count":1}`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in %s", want, got)
		}
	}
}
