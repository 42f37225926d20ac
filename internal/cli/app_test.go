package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reviewsearch/internal/config"
	"reviewsearch/internal/domain"
	"reviewsearch/internal/review"
	"reviewsearch/internal/service"
)

const sampleCSV = `Text,Sentiment,Category,Rating
"The Pixel Phone battery lasts all day, great value",POSITIVE,Electronics,5
"Battery drains fast and the charger broke",NEGATIVE,Electronics,1
"A gripping novel with a slow start",NEUTRAL,Books,3
"Lovely story, the characters feel real",POSITIVE,Books,not rated
`

func offlineConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "tfidf"}
	cfg.VectorStore = config.VectorStoreConfig{Type: "memory", Memory: &config.MemoryConfig{Dataset: path}}
	cfg.Cache.Type = "none"
	return cfg
}

func TestBuildApp_OfflineSearch(t *testing.T) {
	ctx := context.Background()
	a, err := buildApp(ctx, offlineConfig(t), true)
	if err != nil {
		t.Fatalf("buildApp failed: %v", err)
	}
	defer a.Close()

	in, err := a.pipeline.Insights(ctx, "battery", nil, 2)
	if err != nil {
		t.Fatalf("Insights failed: %v", err)
	}
	if len(in.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(in.Records))
	}
	for _, r := range in.Records {
		if r.Category != "Electronics" {
			t.Errorf("expected battery reviews first, got %+v", r)
		}
	}

	var buf bytes.Buffer
	renderInsight(&buf, in, true)
	out := buf.String()
	if !strings.Contains(out, "Results (2)") || !strings.Contains(out, "Sentiment") {
		t.Errorf("unexpected rendering:\n%s", out)
	}
}

func TestBuildApp_OfflineOverview(t *testing.T) {
	ctx := context.Background()
	a, err := buildApp(ctx, offlineConfig(t), true)
	if err != nil {
		t.Fatalf("buildApp failed: %v", err)
	}
	defer a.Close()

	in, err := a.pipeline.Overview(ctx, 500, "Books")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if in.Summary.Total != 2 {
		t.Errorf("expected 2 books, got %d", in.Summary.Total)
	}
	for _, r := range in.Records {
		if r.Category != "Books" {
			t.Errorf("unexpected category %q", r.Category)
		}
	}
	if in.Records[1].Rating != nil {
		t.Errorf("non-numeric rating should be absent, got %v", *in.Records[1].Rating)
	}
}

func TestBuildApp_QdrantRequiresCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "openai", OpenAI: &config.OpenAIEmbedderConfig{}}
	cfg.Cache.Type = "none"
	cfg.VectorStore.Qdrant.URL = ""
	cfg.VectorStore.Qdrant.APIKey = ""
	_, err := buildApp(context.Background(), cfg, true)
	if !errors.Is(err, domain.ErrConfiguration) || !strings.Contains(err.Error(), "endpoint URL") {
		t.Errorf("expected missing endpoint error, got %v", err)
	}
}

func TestBuildApp_RejectsTFIDFWithQdrant(t *testing.T) {
	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "tfidf"}
	cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
	cfg.VectorStore.Qdrant.APIKey = "key"
	_, err := buildApp(context.Background(), cfg, false)
	if !errors.Is(err, domain.ErrConfiguration) || !strings.Contains(err.Error(), "tfidf") {
		t.Errorf("expected tfidf configuration error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Errorf(domain.ErrValidation, "search", "empty"), 2},
		{domain.Errorf(domain.ErrConfiguration, "qdrant", "missing"), 3},
		{domain.Wrap(domain.ErrIndexService, "search", errors.New("down")), 4},
		{errors.New("other"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRenderInsight_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderInsight(&buf, &service.Insight{}, true)
	if !strings.Contains(buf.String(), "no matching reviews") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short   text", 20); got != "short text" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("got %q", got)
	}
}

func TestRenderSummary_RatingSentiments(t *testing.T) {
	five, one := 5.0, 1.0
	records := []domain.ReviewRecord{
		{Text: "a", Sentiment: domain.Positive, Category: "Electronics", Rating: &five},
		{Text: "b", Sentiment: domain.Negative, Category: "Electronics", Rating: &five},
		{Text: "c", Sentiment: domain.Negative, Category: "Electronics", Rating: &one},
	}
	var buf bytes.Buffer
	renderSummary(&buf, review.Aggregator{}.Aggregate(records))
	out := buf.String()
	if !strings.Contains(out, "1.0     1  Negative=1") {
		t.Errorf("missing rating 1 breakdown:\n%s", out)
	}
	if !strings.Contains(out, "5.0     2  Positive=1 Negative=1") {
		t.Errorf("missing rating 5 breakdown:\n%s", out)
	}
	if strings.Index(out, "1.0 ") > strings.Index(out, "5.0 ") {
		t.Errorf("ratings should be ascending:\n%s", out)
	}
}

func TestPreloadLevel(t *testing.T) {
	if preloadLevel("openai") != slog.LevelWarn {
		t.Error("hosted embedder preload should warn")
	}
	for _, typ := range []string{"tfidf", "hugot"} {
		if preloadLevel(typ) != slog.LevelInfo {
			t.Errorf("%s preload should log at info", typ)
		}
	}
}
