package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"reviewsearch/internal/domain"
	"reviewsearch/internal/embedding"
)

// Ingest embeds each payload's text and upserts it into the index in batches.
// Payloads without text are skipped. Point IDs are the payload's position in
// the input. It returns the number of points written.
func (p *Pipeline) Ingest(ctx context.Context, payloads []domain.Payload, batchSize int) (int, error) {
	writer, ok := p.index.(domain.IndexWriter)
	if !ok {
		return 0, domain.Errorf(domain.ErrConfiguration, "ingest", "vector index is read-only")
	}
	if batchSize <= 0 {
		batchSize = 64
	}

	type doc struct {
		id      string
		text    string
		payload domain.Payload
	}
	docs := make([]doc, 0, len(payloads))
	corpus := make([]string, 0, len(payloads))
	for i, pl := range payloads {
		text, _ := pl["text"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, doc{id: strconv.Itoa(i), text: text, payload: pl})
		corpus = append(corpus, text)
	}
	if len(docs) == 0 {
		return 0, domain.Errorf(domain.ErrValidation, "ingest", "no reviews with text")
	}
	if skipped := len(payloads) - len(docs); skipped > 0 {
		slog.Warn("[Pipeline] skipping reviews without text", slog.Int("skipped", skipped))
	}

	if prep, ok := p.embedder.(embedding.Preparer); ok {
		if err := prep.Prepare(corpus); err != nil {
			return 0, domain.Wrap(domain.ErrEmbedding, "ingest", err)
		}
	}
	// The collection is created from the first vector's size, so providers
	// using their model default dimension need no extra configuration.
	initialized := false
	written := 0
	batch := make([]domain.Point, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if !initialized {
			if err := writer.Init(ctx, len(batch[0].Vector)); err != nil {
				return domain.Wrap(domain.ErrIndexService, "ingest", err)
			}
			initialized = true
		}
		if err := writer.Upsert(ctx, batch); err != nil {
			return domain.Wrap(domain.ErrIndexService, "ingest", err)
		}
		written += len(batch)
		slog.Debug("[Pipeline] upserted batch", slog.Int("points", len(batch)), slog.Int("total", written))
		batch = batch[:0]
		return nil
	}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		vec, err := p.embedder.Embed(ctx, d.text)
		if err != nil {
			return written, domain.Wrap(domain.ErrEmbedding, "ingest", err)
		}
		batch = append(batch, domain.Point{ID: d.id, Vector: vec, Payload: d.payload})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	slog.Info("[Pipeline] ingest complete", slog.Int("points", written), slog.String("embedder", p.embedder.Name()))
	return written, nil
}
