package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/osint-cli/internal/store"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List tracked entities by briefing mentions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		mentions, err := st.ListEntityMentions(ctx)
		if err != nil {
			return eris.Wrap(err, "list entity mentions")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(mentions)
	},
}

func init() {
	rootCmd.AddCommand(entitiesCmd)
}
