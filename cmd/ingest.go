package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/memory"
	"github.com/sells-group/osint-cli/pkg/embed"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Chunk and embed documents into the analyst memory index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := memory.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		embedder := embed.NewClient(cfg.Embed.BaseURL, cfg.Embed.Model)
		idx := memory.NewIndex(pool, embedder, cfg.Memory, cfg.Embed.Dimensions)

		if err := idx.Migrate(ctx); err != nil {
			return err
		}

		total := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read document %s", path)
			}

			n, err := idx.Ingest(ctx, filepath.Base(path), string(data))
			if err != nil {
				return eris.Wrapf(err, "ingest document %s", path)
			}
			total += n
		}

		zap.L().Info("ingest complete",
			zap.Int("documents", len(args)),
			zap.Int("chunks", total),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
