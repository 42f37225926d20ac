package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reviewsearch/internal/dataset"
)

var indexBatch int

var indexCmd = &cobra.Command{
	Use:   "index <dataset.csv|gs://bucket/object>",
	Short: "Embed a review CSV and upsert it into the vector index",
	Long: `Index reads a CSV with a text column and optional sentiment, category and
rating columns, embeds every review with the configured embedder, and writes
the vectors and payloads to the configured vector store.

Example:
  reviewsearch index reviews.csv
  reviewsearch index gs://my-bucket/amazon_reviews.csv --batch 128`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		payloads, err := dataset.Load(ctx, args[0])
		if err != nil {
			return err
		}
		a, err := buildApp(ctx, appCfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		batch := indexBatch
		if batch <= 0 {
			batch = appCfg.Pipeline.IngestBatchSize
		}
		n, err := a.pipeline.Ingest(ctx, payloads, batch)
		if err != nil {
			return fmt.Errorf("indexed %d of %d reviews: %w", n, len(payloads), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d reviews from %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().IntVar(&indexBatch, "batch", 0, "points per upsert request (default from config)")
}
