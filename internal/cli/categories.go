package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	categoriesLimit    int
	categoriesCategory string
	categoriesJSON     bool
	categoriesCSV      string
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Summarize a sample of stored reviews by category and sentiment",
	Long: `Categories fetches up to --limit stored reviews without a query and prints
their sentiment, category and rating distributions.

Example:
  reviewsearch categories --limit 500
  reviewsearch categories --category Books --json`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)

	categoriesCmd.Flags().IntVarP(&categoriesLimit, "limit", "n", 0, "number of reviews to sample (default from config)")
	categoriesCmd.Flags().StringVar(&categoriesCategory, "category", "", "only reviews in this category")
	categoriesCmd.Flags().BoolVar(&categoriesJSON, "json", false, "print the overview as JSON")
	categoriesCmd.Flags().StringVar(&categoriesCSV, "csv", "", "also write the sampled reviews to this CSV file")
}

func runCategories(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	a, err := buildApp(ctx, appCfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	insight, err := a.pipeline.Overview(ctx, categoriesLimit, categoriesCategory)
	if err != nil {
		return err
	}
	if categoriesCSV != "" {
		if err := writeCSVFile(categoriesCSV, insight.Records); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	if categoriesJSON {
		return writeJSON(out, insight)
	}
	fmt.Fprintf(out, "Sampled %d reviews\n\n", insight.Summary.Total)
	renderInsight(out, insight, false)
	return nil
}
