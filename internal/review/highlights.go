package review

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"reviewsearch/internal/domain"
)

// Highlighter picks representative sentences from a result set by ranking
// sentences on the normalized frequency of their words.
type Highlighter struct {
	tokenPattern *regexp.Regexp
	sentences    *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewHighlighter creates a frequency-based sentence ranker.
func NewHighlighter() *Highlighter {
	return &Highlighter{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentences:    regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:    DefaultStopwords(),
	}
}

// Highlights returns up to limit sentences from the records' texts, in the order
// they were retrieved.
func (h *Highlighter) Highlights(records []domain.ReviewRecord, limit int) []string {
	if limit <= 0 {
		limit = 3
	}
	var sentences []string
	for _, r := range records {
		if r.Text == domain.DefaultText {
			continue
		}
		sentences = append(sentences, h.split(r.Text)...)
	}
	if len(sentences) == 0 {
		return nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range h.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := h.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		// longer sentences would otherwise always win
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if limit > len(scores) {
		limit = len(scores)
	}
	selected := make([]int, limit)
	for i := 0; i < limit; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, limit)
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return out
}

// split returns the trimmed sentences of text, including an unterminated tail.
func (h *Highlighter) split(text string) []string {
	var out []string
	end := 0
	for _, loc := range h.sentences.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func (h *Highlighter) tokens(text string) []string {
	raw := h.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := h.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}
