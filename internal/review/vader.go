package review

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"reviewsearch/internal/domain"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// VaderLabeler labels text by its VADER compound polarity score.
type VaderLabeler struct {
	analyzer  *govader.SentimentIntensityAnalyzer
	threshold float64
}

// NewVaderLabeler creates a labeler. Scores at or beyond ±threshold are
// polar; a non-positive threshold defaults to 0.2.
func NewVaderLabeler(threshold float64) *VaderLabeler {
	if threshold <= 0 {
		threshold = 0.20
	}
	return &VaderLabeler{analyzer: govader.NewSentimentIntensityAnalyzer(), threshold: threshold}
}

// Label implements domain.SentimentLabeler.
func (v *VaderLabeler) Label(text string) domain.Sentiment {
	score := v.analyzer.PolarityScores(plainText(text)).Compound
	switch {
	case score >= v.threshold:
		return domain.Positive
	case score <= -v.threshold:
		return domain.Negative
	default:
		return domain.Neutral
	}
}

// plainText strips markdown, HTML tags and links from review text.
func plainText(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	html := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := tagPattern.ReplaceAllString(string(html), " ")
	text = urlPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
