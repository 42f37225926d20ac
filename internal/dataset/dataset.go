package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"

	"reviewsearch/internal/domain"
)

var columnAliases = map[string]string{
	"text":        "text",
	"review":      "text",
	"review_text": "text",
	"reviewtext":  "text",
	"content":     "text",
	"sentiment":   "sentiment",
	"label":       "sentiment",
	"category":    "category",
	"rating":      "rating",
	"stars":       "rating",
	"score":       "rating",
}

// Load reads review payloads from a local CSV path or a gs://bucket/object URL.
func Load(ctx context.Context, source string) ([]domain.Payload, error) {
	if strings.HasPrefix(source, "gs://") {
		return loadGCS(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func loadGCS(ctx context.Context, source string) ([]domain.Payload, error) {
	bucket, object, err := splitGCSURL(source)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("dataset %s does not exist: %w", source, err)
		}
		return nil, fmt.Errorf("read dataset %s: %w", source, err)
	}
	defer reader.Close()
	slog.Info("[Dataset] reading from cloud storage", slog.String("bucket", bucket), slog.String("object", object))
	return Parse(reader)
}

func splitGCSURL(source string) (string, string, error) {
	rest := strings.TrimPrefix(source, "gs://")
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid cloud storage URL %q, want gs://bucket/object", source)
	}
	return bucket, object, nil
}

// Parse reads a header row and one review per record. Column names are
// matched case-insensitively; a text column is required. Ratings that do not
// parse as numbers are dropped.
func Parse(r io.Reader) ([]domain.Payload, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.Error{Kind: domain.ErrDataShape, Op: "parse dataset", Err: errors.New("empty file")}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[int]string)
	hasText := false
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if field, ok := columnAliases[key]; ok {
			columns[i] = field
			hasText = hasText || field == "text"
		}
	}
	if !hasText {
		return nil, domain.Errorf(domain.ErrDataShape, "parse dataset", "no text column in header %v", header)
	}

	var payloads []domain.Payload
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		p := domain.Payload{}
		for i, v := range rec {
			field, ok := columns[i]
			if !ok {
				continue
			}
			if _, set := p[field]; set {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if field == "rating" {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					continue
				}
				p[field] = f
				continue
			}
			p[field] = v
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}
