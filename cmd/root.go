package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "osint-cli",
	Short: "Geopolitical OSINT briefing engine",
	Long:  "Runs analyst queries through a guarded collection graph: web search, document memory, and location mapping feed a synthesized intelligence briefing with deduplicated entity records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
