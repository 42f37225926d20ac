package review

import (
	"regexp"
	"strings"
	"unicode"

	"reviewsearch/internal/domain"
)

// NewProductExtractor selects an extractor by name: "regex" (default) or "entity".
func NewProductExtractor(name string) (domain.ProductExtractor, error) {
	switch strings.ToLower(name) {
	case "", "regex":
		return NewRegexExtractor(), nil
	case "entity", "ner":
		return NewEntityExtractor(), nil
	default:
		return nil, domain.Errorf(domain.ErrConfiguration, "product extractor", "unknown strategy %q", name)
	}
}

// RegexExtractor returns the first run of two or more consecutive capitalized words.
type RegexExtractor struct {
	pattern *regexp.Regexp
}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{pattern: regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)}
}

func (e *RegexExtractor) Name() string { return "regex" }

func (e *RegexExtractor) Extract(text string) string {
	if m := e.pattern.FindString(text); m != "" {
		return m
	}
	return domain.UnknownProduct
}

// EntityExtractor tags capitalized spans as organization-like (known brands,
// corporate suffixes) or product-like (model numbers, mixed-case brand names)
// and returns the first tagged span.
type EntityExtractor struct {
	brands   map[string]struct{}
	suffixes map[string]struct{}
	token    *regexp.Regexp
}

func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{
		brands:   toSet(defaultBrands),
		suffixes: toSet([]string{"inc", "corp", "corporation", "ltd", "llc", "co", "company", "gmbh"}),
		token:    regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}&'\-]*`),
	}
}

func (e *EntityExtractor) Name() string { return "entity" }

func (e *EntityExtractor) Extract(text string) string {
	for _, span := range e.spans(text) {
		if e.isOrganization(span) || e.isProduct(span) {
			return strings.Join(span, " ")
		}
	}
	return domain.UnknownProduct
}

// spans groups consecutive entity-shaped tokens. A model-number token only
// extends a span, it never starts one.
func (e *EntityExtractor) spans(text string) [][]string {
	var out [][]string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	locs := e.token.FindAllStringIndex(text, -1)
	for i, loc := range locs {
		tok := text[loc[0]:loc[1]]
		if i > 0 && hasBreak(text[locs[i-1][1]:loc[0]]) {
			flush()
		}
		switch {
		case isCapitalized(tok) || isMixedCase(tok):
			cur = append(cur, tok)
		case len(cur) > 0 && isModelNumber(tok):
			cur = append(cur, tok)
		default:
			flush()
		}
	}
	flush()
	return out
}

func (e *EntityExtractor) isOrganization(span []string) bool {
	for _, tok := range span {
		if _, ok := e.brands[strings.ToLower(tok)]; ok {
			return true
		}
	}
	last := strings.ToLower(strings.TrimSuffix(span[len(span)-1], "."))
	_, ok := e.suffixes[last]
	return ok && len(span) > 1
}

func (e *EntityExtractor) isProduct(span []string) bool {
	for _, tok := range span {
		if isModelNumber(tok) || isMixedCase(tok) {
			return true
		}
	}
	return false
}

func hasBreak(sep string) bool {
	return strings.ContainsAny(sep, ".,;:!?()\n")
}

func isCapitalized(tok string) bool {
	r := []rune(tok)
	return len(r) > 1 && unicode.IsUpper(r[0])
}

// isMixedCase matches brand spellings like iPhone or eReader.
func isMixedCase(tok string) bool {
	r := []rune(tok)
	if len(r) < 3 || !unicode.IsLower(r[0]) {
		return false
	}
	for _, c := range r[1:] {
		if unicode.IsUpper(c) {
			return true
		}
	}
	return false
}

func isModelNumber(tok string) bool {
	var digits, letters int
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	return digits > 0 && (letters > 0 || len(tok) >= 2)
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}

var defaultBrands = []string{
	"amazon", "kindle", "echo", "fire", "alexa", "apple", "samsung", "sony", "google", "pixel",
	"microsoft", "xbox", "nintendo", "playstation", "lg", "dell", "hp", "lenovo", "asus", "acer",
	"logitech", "bose", "jbl", "anker", "philips", "panasonic", "canon", "nikon", "fitbit", "garmin",
	"motorola", "nokia", "huawei", "xiaomi", "oneplus", "roku", "sandisk", "kingston", "seagate",
}
