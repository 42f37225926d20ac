package hugot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"reviewsearch/internal/domain"
)

// DefaultModel produces 768-dimensional sentence embeddings.
const DefaultModel = "sentence-transformers/all-mpnet-base-v2"

// Config configures the local sentence-transformer embedder.
type Config struct {
	Model     string
	ModelDir  string
	Dimension int
}

// Embedder runs a sentence-transformer feature extraction pipeline in process.
type Embedder struct {
	mu        sync.Mutex
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	model     string
	dimension int
}

// New downloads the model on first use and starts an ONNX runtime session.
func New(cfg Config) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = "models"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 768
	}
	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return nil, domain.Wrap(domain.ErrConfiguration, "hugot embedder", err)
	}

	modelPath := filepath.Join(cfg.ModelDir, strings.ReplaceAll(cfg.Model, "/", "_"))
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		slog.Info("[HugotEmbedder] model not found, downloading", slog.String("model", cfg.Model))
		modelPath, err = hugot.DownloadModel(cfg.Model, cfg.ModelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, domain.Wrap(domain.ErrConfiguration, "hugot download", err)
		}
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, domain.Wrap(domain.ErrConfiguration, "hugot session", err)
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "reviewEmbeddingPipeline",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, domain.Wrap(domain.ErrConfiguration, "hugot pipeline", err)
	}
	slog.Info("[HugotEmbedder] ready", slog.String("path", modelPath))
	return &Embedder{session: session, pipeline: pipeline, model: cfg.Model, dimension: cfg.Dimension}, nil
}

func (e *Embedder) Name() string { return "hugot:" + e.model }

func (e *Embedder) Dimension() int { return e.dimension }

// Embed runs the pipeline for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "hugot embed", err)
	}
	e.mu.Lock()
	out, err := e.pipeline.RunPipeline([]string{text})
	e.mu.Unlock()
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "hugot embed", err)
	}
	if len(out.Embeddings) == 0 {
		return nil, domain.Errorf(domain.ErrEmbedding, "hugot embed", "no embedding returned")
	}
	v := out.Embeddings[0]
	if len(v) != e.dimension {
		return nil, domain.Errorf(domain.ErrEmbedding, "hugot embed", "expected %d dimensions, got %d", e.dimension, len(v))
	}
	return v, nil
}

// Close releases the ONNX runtime session.
func (e *Embedder) Close() error {
	if err := e.session.Destroy(); err != nil {
		return fmt.Errorf("destroy hugot session: %w", err)
	}
	return nil
}
