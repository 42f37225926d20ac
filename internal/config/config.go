package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"reviewsearch/internal/domain"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// HugotEmbedderConfig configures the local sentence-transformer.
type HugotEmbedderConfig struct {
	Model     string `yaml:"model"`
	ModelDir  string `yaml:"model_dir"`
	Dimension int    `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Hugot  *HugotEmbedderConfig  `yaml:"hugot,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
	Memory *MemoryConfig `yaml:"memory,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL               string  `yaml:"url"`
	APIKey            string  `yaml:"api_key"`
	Collection        string  `yaml:"collection"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	// VectorSize sizes the zero vector used when the service cannot scroll.
	VectorSize int `yaml:"vector_size"`
}

// MemoryConfig points the in-memory index at a CSV dataset, local or gs://.
type MemoryConfig struct {
	Dataset string `yaml:"dataset"`
}

// ValkeyConfig holds connection details for the shared embedding cache.
type ValkeyConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
}

// CacheConfig selects the query-embedding cache.
type CacheConfig struct {
	Type    string        `yaml:"type"`
	TTLSecs int           `yaml:"ttl_secs"`
	Valkey  *ValkeyConfig `yaml:"valkey,omitempty"`
}

// KeywordsConfig tunes per-sentiment keyword extraction.
type KeywordsConfig struct {
	TopN      int `yaml:"top_n"`
	MinLength int `yaml:"min_length"`
}

// PipelineConfig tunes the query pipeline.
type PipelineConfig struct {
	Limit                 int            `yaml:"limit"`
	SampleLimit           int            `yaml:"sample_limit"`
	ClientSideFilter      bool           `yaml:"client_side_filter"`
	ProductExtractor      string         `yaml:"product_extractor"`
	InferMissingSentiment bool           `yaml:"infer_missing_sentiment"`
	Highlights            int            `yaml:"highlights"`
	IngestBatchSize       int            `yaml:"ingest_batch_size"`
	Keywords              KeywordsConfig `yaml:"keywords"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Cache       CacheConfig       `yaml:"cache"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, domain.Wrap(domain.ErrConfiguration, "parse "+path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/reviewsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/reviewsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultUserConfigPath returns ~/.config/reviewsearch/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reviewsearch", "config.yaml"), nil
}

// Default returns the configuration of the hosted deployment: a local
// all-mpnet-base-v2 embedder against the amazon_reviews Qdrant collection.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "hugot"},
		VectorStore: VectorStoreConfig{
			Type:   "qdrant",
			Qdrant: &QdrantConfig{},
		},
		Cache: CacheConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hugot"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "hugot" {
		if cfg.Embedder.Hugot == nil {
			cfg.Embedder.Hugot = &HugotEmbedderConfig{}
		}
		if cfg.Embedder.Hugot.Model == "" {
			cfg.Embedder.Hugot.Model = "sentence-transformers/all-mpnet-base-v2"
		}
		if cfg.Embedder.Hugot.ModelDir == "" {
			cfg.Embedder.Hugot.ModelDir = "models"
		}
		if cfg.Embedder.Hugot.Dimension == 0 {
			cfg.Embedder.Hugot.Dimension = 768
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		q := cfg.VectorStore.Qdrant
		if q.Collection == "" {
			q.Collection = "amazon_reviews"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
		if q.VectorSize == 0 {
			q.VectorSize = 768
		}
	}

	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "memory"
	}
	if cfg.Cache.TTLSecs == 0 {
		cfg.Cache.TTLSecs = 3600
	}

	p := &cfg.Pipeline
	if p.Limit == 0 {
		p.Limit = 10
	}
	if p.SampleLimit == 0 {
		p.SampleLimit = 500
	}
	if p.ProductExtractor == "" {
		p.ProductExtractor = "regex"
	}
	if p.Highlights == 0 {
		p.Highlights = 3
	}
	if p.IngestBatchSize == 0 {
		p.IngestBatchSize = 64
	}
	if p.Keywords.TopN == 0 {
		p.Keywords.TopN = 10
	}
	if p.Keywords.MinLength == 0 {
		p.Keywords.MinLength = 4
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// applyEnv lets deployment secrets override the file.
func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{Collection: "amazon_reviews", TimeoutSecs: 15, VectorSize: 768}
		}
		cfg.VectorStore.Qdrant.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{Collection: "amazon_reviews", TimeoutSecs: 15, VectorSize: 768}
		}
		cfg.VectorStore.Qdrant.APIKey = v
	}
	addr, pass := os.Getenv("VALKEY_ADDRESS"), os.Getenv("VALKEY_PASSWORD")
	if addr != "" || pass != "" {
		if cfg.Cache.Valkey == nil {
			cfg.Cache.Valkey = &ValkeyConfig{}
		}
		if addr != "" {
			cfg.Cache.Valkey.Address = addr
		}
		if pass != "" {
			cfg.Cache.Valkey.Password = pass
		}
	}
}

// Validate reports the first setting that cannot produce a working pipeline.
// Secrets are not checked here; components fail on construction when they are missing.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Embedder.Type {
	case "hugot", "openai", "tfidf":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder: %s", c.Embedder.Type))
	}
	if c.Embedder.Type == "tfidf" && c.VectorStore.Type != "memory" {
		// the vocabulary is fitted per process from the memory store's dataset
		errs = append(errs, errors.New("tfidf embedder requires the memory vector store"))
	}
	switch c.VectorStore.Type {
	case "qdrant":
	case "memory":
		if c.VectorStore.Memory == nil || strings.TrimSpace(c.VectorStore.Memory.Dataset) == "" {
			errs = append(errs, errors.New("memory vector store needs vector_store.memory.dataset"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown vector store: %s", c.VectorStore.Type))
	}
	switch c.Cache.Type {
	case "memory", "none":
	case "valkey":
		if c.Cache.Valkey == nil || c.Cache.Valkey.Address == "" {
			errs = append(errs, errors.New("valkey cache needs cache.valkey.address or VALKEY_ADDRESS"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache: %s", c.Cache.Type))
	}
	switch c.Pipeline.ProductExtractor {
	case "regex", "entity", "ner":
	default:
		errs = append(errs, fmt.Errorf("unknown product extractor: %s", c.Pipeline.ProductExtractor))
	}
	if c.Pipeline.Limit < 0 || c.Pipeline.SampleLimit < 0 {
		errs = append(errs, errors.New("pipeline limits must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level: %s", c.Log.Level))
	}
	if len(errs) > 0 {
		return domain.Wrap(domain.ErrConfiguration, "validate config", errors.Join(errs...))
	}
	return nil
}
