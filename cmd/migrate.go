package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/memory"
	"github.com/sells-group/osint-cli/internal/store"
	"github.com/sells-group/osint-cli/pkg/embed"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the briefing and memory schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		zap.L().Info("store schema up to date", zap.String("driver", cfg.Store.Driver))

		if cfg.Store.Driver == "postgres" || cfg.Store.Driver == "" {
			pool, err := memory.NewPool(ctx, cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			idx := memory.NewIndex(pool, embed.NewClient(cfg.Embed.BaseURL, cfg.Embed.Model), cfg.Memory, cfg.Embed.Dimensions)
			if err := idx.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate memory index")
			}
			zap.L().Info("memory schema up to date")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
