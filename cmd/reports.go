package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/osint-cli/internal/store"
)

var reportsLimit int

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List recent intelligence briefings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		briefings, err := st.ListBriefings(ctx, reportsLimit)
		if err != nil {
			return eris.Wrap(err, "list briefings")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(briefings)
	},
}

func init() {
	reportsCmd.Flags().IntVar(&reportsLimit, "limit", 20, "maximum briefings to list")
	rootCmd.AddCommand(reportsCmd)
}
