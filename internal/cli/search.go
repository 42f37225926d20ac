package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reviewsearch/internal/service"
)

var (
	searchLimit     int
	searchCategory  string
	searchSentiment string
	searchCSV       string
	searchJSON      bool
	searchTimeout   time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search reviews and summarize the hits",
	Long: `Search embeds the query, retrieves the most similar reviews and prints
them with sentiment, category, rating and keyword breakdowns.

Example:
  reviewsearch search "great budget phone"
  reviewsearch search "battery life" --category Electronics --limit 20 --csv hits.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "number of results (default from config)")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "only reviews in this category")
	searchCmd.Flags().StringVar(&searchSentiment, "sentiment", "", "only reviews with this stored sentiment label")
	searchCmd.Flags().StringVar(&searchCSV, "csv", "", "also write the results to this CSV file")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the insight as JSON")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
	defer cancel()

	a, err := buildApp(ctx, appCfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	insight, err := a.pipeline.Insights(ctx, query, service.Filters{
		"category":  searchCategory,
		"sentiment": searchSentiment,
	}, searchLimit)
	if err != nil {
		return err
	}

	if searchCSV != "" {
		if err := writeCSVFile(searchCSV, insight.Records); err != nil {
			return err
		}
		slog.Info("[CLI] results exported", slog.String("path", searchCSV), slog.Int("rows", len(insight.Records)))
	}
	out := cmd.OutOrStdout()
	if searchJSON {
		return writeJSON(out, insight)
	}
	fmt.Fprintf(out, "Query: %s\n\n", insight.Query)
	renderInsight(out, insight, true)
	return nil
}
