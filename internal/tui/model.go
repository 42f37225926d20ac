package tui

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reviewsearch/internal/domain"
	"reviewsearch/internal/service"
)

// Port is the TUI-facing subset of the query pipeline.
type Port interface {
	Insights(ctx context.Context, query string, filters service.Filters, limit int) (*service.Insight, error)
	Overview(ctx context.Context, limit int, category string) (*service.Insight, error)
}

// Options tunes the dashboard.
type Options struct {
	Limit       int
	SampleLimit int
	Timeout     time.Duration
}

// insightMsg carries a pipeline response. seq identifies the request that
// produced it so that a slow response cannot overwrite a newer one.
type insightMsg struct {
	seq      int
	overview bool
	insight  *service.Insight
	err      error
}

var sentimentChoices = []string{service.AllValues, "POSITIVE", "NEGATIVE", "NEUTRAL"}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	pipeline   Port
	opts       Options
	input      textinput.Model
	viewport   viewport.Model
	insight    *service.Insight
	categories []string
	category   int
	sentiment  int
	status     string
	cursor     int
	ready      bool
	lastQuery  string
	seq        int
	width      int
}

// New creates a new dashboard model.
func New(pipeline Port, opts Options) Model {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "e.g. great budget phone, then Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		pipeline:   pipeline,
		opts:       opts,
		input:      ti,
		viewport:   vp,
		categories: []string{service.AllValues},
		status:     "Loading category overview...",
	}
}

// Init starts the cursor blink and loads the category overview.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.overviewCmd(m.seq))
}

func (m Model) overviewCmd(seq int) tea.Cmd {
	p, opts := m.pipeline, m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()
		in, err := p.Overview(ctx, opts.SampleLimit, "")
		return insightMsg{seq: seq, overview: true, insight: in, err: err}
	}
}

func (m Model) searchCmd(seq int, query string, filters service.Filters) tea.Cmd {
	p, opts := m.pipeline, m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()
		in, err := p.Insights(ctx, query, filters, opts.Limit)
		return insightMsg{seq: seq, insight: in, err: err}
	}
}

func (m Model) filters() service.Filters {
	return service.Filters{
		"category":  m.categories[m.category],
		"sentiment": sentimentChoices[m.sentiment],
	}
}

// Update handles key, window and response events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + len(domain.Sentiments) + 1 + qh + 1
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case insightMsg:
		return m.applyInsight(msg), nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				m.status = "Type a query first."
				return m, nil
			}
			m.seq++
			m.lastQuery = q
			m.status = fmt.Sprintf("Searching for %q...", q)
			return m, m.searchCmd(m.seq, q, m.filters())
		case "tab":
			m.category = (m.category + 1) % len(m.categories)
			m.status = "Category: " + m.categories[m.category]
			return m, nil
		case "shift+tab":
			m.sentiment = (m.sentiment + 1) % len(sentimentChoices)
			m.status = "Sentiment: " + sentimentChoices[m.sentiment]
			return m, nil
		case "down":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) applyInsight(msg insightMsg) Model {
	// categories are useful even when a search has already superseded the overview
	if msg.overview && msg.err == nil {
		m.categories = append([]string{service.AllValues}, distinctCategories(msg.insight.Records)...)
		if m.category >= len(m.categories) {
			m.category = 0
		}
	}
	if msg.seq != m.seq {
		return m
	}
	if msg.err != nil {
		m.status = "Error: " + msg.err.Error()
		m.insight = nil
		m.viewport.SetContent(m.renderCurrentResult())
		return m
	}
	if msg.overview {
		m.status = fmt.Sprintf("Overview of %d stored reviews, %d categories. Type to search.", msg.insight.Summary.Total, len(m.categories)-1)
	} else {
		m.status = fmt.Sprintf("%d results for %q", len(msg.insight.Records), m.lastQuery)
	}
	m.insight = msg.insight
	m.cursor = 0
	m.viewport.SetContent(m.renderCurrentResult())
	return m
}

func (m Model) resultCount() int {
	if m.insight == nil {
		return 0
	}
	return len(m.insight.Records)
}

func distinctCategories(records []domain.ReviewRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// View renders the dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Amazon Review Insights")
	filters := dimStyle.Render(fmt.Sprintf("category: %s (tab)   sentiment: %s (shift+tab)",
		m.categories[m.category], sentimentChoices[m.sentiment]))
	var bars string
	if m.insight != nil {
		bars = renderBars(m.insight.Summary.Sentiments, m.insight.Summary.Total, 30)
	} else {
		bars = renderBars(nil, 0, 30)
	}
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + filters + "\n" + bars + "\n" + results + "\n" + input + "\n" + status
}

func renderBars(counts map[domain.Sentiment]int, total, width int) string {
	lines := make([]string, 0, len(domain.Sentiments))
	for _, s := range domain.Sentiments {
		n := counts[s]
		filled := 0
		if total > 0 {
			filled = n * width / total
		}
		bar := sentimentStyles[s].Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
		lines = append(lines, fmt.Sprintf("%-8s %s %d", s, bar, n))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCurrentResult() string {
	if m.resultCount() == 0 {
		return "No results yet."
	}
	r := m.insight.Records[m.cursor]
	rating := "n/a"
	if r.Rating != nil {
		rating = fmt.Sprintf("%.1f", *r.Rating)
	}
	title := fmt.Sprintf("Result %d/%d  score=%.3f  %s  %s  rating=%s",
		m.cursor+1, len(m.insight.Records), r.Score,
		sentimentStyles[r.Sentiment].Render(string(r.Sentiment)), r.Category, rating)
	product := dimStyle.Render("product: " + r.Product)
	body := highlightBestSentence(r.Text, m.lastQuery)
	out := title + "\n" + product + "\n\n" + body
	if kw := m.insight.Summary.Keywords[r.Sentiment]; len(kw) > 0 {
		words := make([]string, len(kw))
		for i, k := range kw {
			words[i] = fmt.Sprintf("%s(%d)", k.Word, k.Count)
		}
		out += "\n\n" + dimStyle.Render("top "+strings.ToLower(string(r.Sentiment))+" keywords: "+strings.Join(words, " "))
	}
	return out
}

var (
	resultBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sentimentStyles = map[domain.Sentiment]lipgloss.Style{
		domain.Positive: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.Negative: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		domain.Neutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the sentence sharing the most words with the query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
