package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"reviewsearch/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive review dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		a, err := buildApp(ctx, appCfg, true)
		cancel()
		if err != nil {
			return err
		}
		defer a.Close()

		m := tui.New(a.pipeline, tui.Options{
			Limit:       appCfg.Pipeline.Limit,
			SampleLimit: appCfg.Pipeline.SampleLimit,
			Timeout:     time.Minute,
		})
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
