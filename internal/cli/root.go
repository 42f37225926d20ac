package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reviewsearch/internal/config"
	"reviewsearch/internal/logging"
)

// Version is set at build time with -ldflags "-X reviewsearch/internal/cli.Version=...".
var Version = "dev"

var (
	cfgFile string
	verbose bool
	appCfg  *config.AppConfig
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reviewsearch",
	Short: "Semantic search and sentiment insights over Amazon product reviews",
	Long: `reviewsearch embeds a free-text query, runs a similarity search against a
vector index of Amazon product reviews, and summarizes the hits by sentiment,
category, rating, keywords and product names.

Run it as a one-shot command, a JSON API, or an interactive dashboard.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "reviewsearch "+Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, then ~/.config/reviewsearch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the config file, applies env overrides and installs the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd == versionCmd || cmd == configInitCmd {
		return nil
	}
	var (
		cfg  *config.AppConfig
		path = cfgFile
		err  error
	)
	if path == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logging.Init(level)
	slog.Debug("[CLI] config loaded", slog.String("path", path))
	appCfg = cfg
	return nil
}
