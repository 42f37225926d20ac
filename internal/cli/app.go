package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reviewsearch/internal/cache"
	"reviewsearch/internal/config"
	"reviewsearch/internal/dataset"
	"reviewsearch/internal/domain"
	"reviewsearch/internal/embedding"
	"reviewsearch/internal/embedding/hugot"
	"reviewsearch/internal/embedding/openai"
	"reviewsearch/internal/embedding/tfidf"
	"reviewsearch/internal/review"
	"reviewsearch/internal/service"
	"reviewsearch/internal/vectorstore"
	"reviewsearch/internal/vectorstore/memory"
	"reviewsearch/internal/vectorstore/qdrant"
)

// app holds the process-wide components. They are built once and shared
// read-only by every request.
type app struct {
	pipeline *service.Pipeline
	store    vectorstore.Storage
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("[CLI] close", slog.String("error", err.Error()))
		}
	}
}

// buildApp assembles the pipeline from config. With preload, a memory store is
// filled from its configured dataset.
func buildApp(ctx context.Context, cfg *config.AppConfig, preload bool) (_ *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	emb, err := buildEmbedder(cfg, a)
	if err != nil {
		return nil, err
	}
	emb, err = withCache(ctx, cfg, emb, a)
	if err != nil {
		return nil, err
	}

	dimension := emb.Dimension()
	switch cfg.VectorStore.Type {
	case "memory":
		a.store = memory.NewStorage()
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, domain.Errorf(domain.ErrConfiguration, "qdrant", "qdrant config missing")
		}
		st, err := qdrant.NewStorage(qdrant.Config{
			URL:               q.URL,
			APIKey:            q.APIKey,
			Collection:        q.Collection,
			Timeout:           time.Duration(q.TimeoutSecs) * time.Second,
			RequestsPerSecond: q.RequestsPerSecond,
			Burst:             q.Burst,
		})
		if err != nil {
			return nil, err
		}
		a.store = st
		if dimension == 0 {
			dimension = q.VectorSize
		}
	}

	products, err := review.NewProductExtractor(cfg.Pipeline.ProductExtractor)
	if err != nil {
		return nil, err
	}
	var labeler domain.SentimentLabeler
	if cfg.Pipeline.InferMissingSentiment {
		labeler = review.NewVaderLabeler(0)
	}
	aggregator := review.Aggregator{
		Keywords: review.NewKeywordExtractor(cfg.Pipeline.Keywords.TopN, cfg.Pipeline.Keywords.MinLength, nil),
	}
	a.pipeline, err = service.New(emb, a.store, review.NewNormalizer(products, labeler), aggregator, service.Options{
		Limit:            cfg.Pipeline.Limit,
		SampleLimit:      cfg.Pipeline.SampleLimit,
		ClientSideFilter: cfg.Pipeline.ClientSideFilter,
		Dimension:        dimension,
		Highlights:       cfg.Pipeline.Highlights,
	})
	if err != nil {
		return nil, err
	}

	if preload && cfg.VectorStore.Type == "memory" {
		payloads, err := dataset.Load(ctx, cfg.VectorStore.Memory.Dataset)
		if err != nil {
			return nil, domain.Wrap(domain.ErrConfiguration, "load dataset", err)
		}
		slog.Log(ctx, preloadLevel(cfg.Embedder.Type), "[CLI] embedding memory dataset",
			slog.String("embedder", emb.Name()),
			slog.Int("embeddings", len(payloads)))
		n, err := a.pipeline.Ingest(ctx, payloads, cfg.Pipeline.IngestBatchSize)
		if err != nil {
			return nil, err
		}
		slog.Info("[CLI] memory index ready", slog.String("dataset", cfg.VectorStore.Memory.Dataset), slog.Int("reviews", n))
	}
	return a, nil
}

// preloadLevel flags hosted embedders, which pay one request per review each
// time the memory index is built.
func preloadLevel(embedderType string) slog.Level {
	if embedderType == "openai" {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func buildEmbedder(cfg *config.AppConfig, a *app) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf":
		return tfidf.NewEmbedder(review.DefaultStopwords()), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, domain.Errorf(domain.ErrConfiguration, "openai", "openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Dimensions: oc.Dimensions,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "hugot":
		hc := cfg.Embedder.Hugot
		if hc == nil {
			hc = &config.HugotEmbedderConfig{}
		}
		emb, err := hugot.New(hugot.Config{Model: hc.Model, ModelDir: hc.ModelDir, Dimension: hc.Dimension})
		if err != nil {
			return nil, domain.Wrap(domain.ErrConfiguration, "hugot", err)
		}
		a.closers = append(a.closers, emb.Close)
		return emb, nil
	}
	return nil, domain.Errorf(domain.ErrConfiguration, "embedder", "unknown embedder: %s", cfg.Embedder.Type)
}

// withCache wraps model-backed embedders in the configured query cache.
// TF-IDF vectors depend on the loaded corpus and are never cached.
func withCache(ctx context.Context, cfg *config.AppConfig, emb domain.Embedder, a *app) (domain.Embedder, error) {
	if cfg.Embedder.Type == "tfidf" {
		return emb, nil
	}
	ttl := time.Duration(cfg.Cache.TTLSecs) * time.Second
	var c cache.Cache
	switch cfg.Cache.Type {
	case "none":
		return emb, nil
	case "memory":
		c = cache.NewMemoryCache(ttl, 10*time.Minute)
	case "valkey":
		v := cfg.Cache.Valkey
		vc, err := cache.NewValkeyCache(ctx, cache.ValkeyConfig{Address: v.Address, Password: v.Password, TLS: v.TLS})
		if err != nil {
			return nil, domain.Wrap(domain.ErrConfiguration, "valkey", err)
		}
		c = vc
	default:
		return nil, domain.Errorf(domain.ErrConfiguration, "cache", "unknown cache: %s", cfg.Cache.Type)
	}
	a.closers = append(a.closers, c.Close)
	return embedding.NewCached(emb, c, ttl), nil
}

// ExitCode maps error kinds onto process exit codes.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return 2
	case errors.Is(err, domain.ErrConfiguration):
		return 3
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrIndexService):
		return 4
	default:
		return 1
	}
}
