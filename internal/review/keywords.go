package review

import (
	"sort"
	"strings"
	"unicode"

	"reviewsearch/internal/domain"
)

// KeywordCount is a token and the number of reviews mentioning it.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// KeywordExtractor ranks the most mentioned words per sentiment bucket.
type KeywordExtractor struct {
	topN      int
	minLength int
	stopwords map[string]struct{}
}

// NewKeywordExtractor creates an extractor returning topN words per bucket.
// Tokens shorter than minLength runes are dropped. A nil stopword set uses the
// built-in English list; pass an empty set to keep every word.
func NewKeywordExtractor(topN, minLength int, stopwords map[string]struct{}) *KeywordExtractor {
	if topN <= 0 {
		topN = 10
	}
	if minLength <= 0 {
		minLength = 4
	}
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}
	return &KeywordExtractor{topN: topN, minLength: minLength, stopwords: stopwords}
}

// BySentiment groups records by sentiment and ranks keywords within each group.
func (k *KeywordExtractor) BySentiment(records []domain.ReviewRecord) map[domain.Sentiment][]KeywordCount {
	buckets := make(map[domain.Sentiment][]string)
	for _, r := range records {
		if r.Text == domain.DefaultText {
			continue
		}
		buckets[r.Sentiment] = append(buckets[r.Sentiment], r.Text)
	}
	out := make(map[domain.Sentiment][]KeywordCount, len(buckets))
	for s, texts := range buckets {
		if top := k.Top(texts); len(top) > 0 {
			out[s] = top
		}
	}
	return out
}

// Top counts, for each word, the texts that mention it, and returns the most
// frequent words. Equal counts keep first-appearance order.
func (k *KeywordExtractor) Top(texts []string) []KeywordCount {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range k.tokens(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			if _, ok := counts[tok]; !ok {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}
	ranked := make([]KeywordCount, len(order))
	for i, w := range order {
		ranked[i] = KeywordCount{Word: w, Count: counts[w]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > k.topN {
		ranked = ranked[:k.topN]
	}
	return ranked
}

func (k *KeywordExtractor) tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		tok := strings.TrimFunc(f, unicode.IsPunct)
		if len([]rune(tok)) < k.minLength || !isAlpha(tok) {
			continue
		}
		if _, stop := k.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// DefaultStopwords returns the English stopword set used for keywords and highlights.
func DefaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"have", "has", "had", "having", "what", "which", "when", "where", "while", "would", "could", "they", "them", "their", "there", "your", "yours", "mine", "only", "also", "some", "more", "most", "other", "each", "both", "here", "does", "doing", "did", "because", "until", "who", "whom", "why", "how", "all", "any", "few", "nor", "not", "our", "ours", "you", "she", "him", "his", "her", "its", "itself", "myself", "really", "even", "much", "well", "still", "get", "got",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
