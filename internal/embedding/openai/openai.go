package openai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"reviewsearch/internal/domain"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	client    *goopenai.Client
	model     string
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	// Dimensions requests shortened vectors from models that support it; it
	// must equal the vector size of the target collection.
	Dimensions int
	Timeout    time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, domain.Errorf(domain.ErrConfiguration, "openai embedder", "missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(goopenai.SmallEmbedding3)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	oc := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: t}
	return &Client{
		client:    goopenai.NewClientWithConfig(oc),
		model:     cfg.Model,
		dimension: cfg.Dimensions,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai:" + c.model }

// Dimension returns the configured vector size, or 0 when the model default is used.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text. It makes exactly one request.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      []string{text},
		Model:      goopenai.EmbeddingModel(c.model),
		Dimensions: c.dimension,
	})
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "openai embed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, domain.Wrap(domain.ErrEmbedding, "openai embed", errors.New("no embedding returned"))
	}
	v := resp.Data[0].Embedding
	if c.dimension > 0 && len(v) != c.dimension {
		return nil, domain.Errorf(domain.ErrEmbedding, "openai embed", "expected %d dimensions, got %d", c.dimension, len(v))
	}
	return v, nil
}
