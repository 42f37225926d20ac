package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reviewsearch/internal/domain"
	"reviewsearch/internal/review"
	"reviewsearch/internal/service"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyles  = map[domain.Sentiment]lipgloss.Style{
		domain.Positive: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.Negative: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		domain.Neutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderInsight prints records followed by their summary.
func renderInsight(w io.Writer, in *service.Insight, showRecords bool) {
	if showRecords {
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Results (%d)", len(in.Records))))
		if len(in.Records) == 0 {
			fmt.Fprintln(w, dimStyle.Render("no matching reviews"))
		}
		for i, r := range in.Records {
			rating := "-"
			if r.Rating != nil {
				rating = fmt.Sprintf("%.1f", *r.Rating)
			}
			fmt.Fprintf(w, "%2d. [%.3f] %s  %s  rating %s  %s\n", i+1, r.Score,
				labelStyles[r.Sentiment].Render(string(r.Sentiment)), r.Category, rating, dimStyle.Render(r.Product))
			fmt.Fprintf(w, "    %s\n", truncate(r.Text, 160))
		}
		fmt.Fprintln(w)
	}
	renderSummary(w, in.Summary)
	if len(in.Highlights) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Highlights"))
		for _, h := range in.Highlights {
			fmt.Fprintln(w, "  • "+h)
		}
	}
}

func renderSummary(w io.Writer, s review.Summary) {
	fmt.Fprintln(w, headingStyle.Render("Sentiment"))
	for _, label := range domain.Sentiments {
		n := s.Sentiments[label]
		pct := 0.0
		if s.Total > 0 {
			pct = 100 * float64(n) / float64(s.Total)
		}
		fmt.Fprintf(w, "  %-8s %4d  %5.1f%%\n", labelStyles[label].Render(string(label)), n, pct)
	}
	if cats := s.Categories(); len(cats) > 0 {
		fmt.Fprintln(w, headingStyle.Render("By category"))
		for _, c := range cats {
			parts := make([]string, 0, len(domain.Sentiments))
			for _, label := range domain.Sentiments {
				parts = append(parts, fmt.Sprintf("%s=%d", label, s.CategorySentiments[review.CategorySentiment{Category: c, Sentiment: label}]))
			}
			fmt.Fprintf(w, "  %-24s %s\n", c, strings.Join(parts, " "))
		}
	}
	if len(s.Ratings) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Ratings"))
		for _, r := range sortedRatings(s.Ratings) {
			parts := make([]string, 0, len(domain.Sentiments))
			for _, label := range domain.Sentiments {
				if n := s.RatingSentiments[review.RatingSentiment{Rating: r, Sentiment: label}]; n > 0 {
					parts = append(parts, fmt.Sprintf("%s=%d", label, n))
				}
			}
			fmt.Fprintf(w, "  %.1f  %4d  %s\n", r, s.Ratings[r], strings.Join(parts, " "))
		}
	}
	for _, label := range domain.Sentiments {
		kw := s.Keywords[label]
		if len(kw) == 0 {
			continue
		}
		words := make([]string, len(kw))
		for i, k := range kw {
			words[i] = fmt.Sprintf("%s(%d)", k.Word, k.Count)
		}
		fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Keywords "+string(label)), strings.Join(words, " "))
	}
}

func sortedRatings(m map[float64]int) []float64 {
	out := make([]float64, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Float64s(out)
	return out
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func writeCSVFile(path string, records []domain.ReviewRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := review.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
