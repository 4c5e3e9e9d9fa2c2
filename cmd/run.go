package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/model"
)

var runQuery string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single analyst query through the briefing graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		conversation := []model.Turn{{Role: model.RoleUser, Content: runQuery}}
		state, err := env.Engine.Run(ctx, conversation)
		if err != nil {
			return eris.Wrap(err, "briefing run")
		}

		if state.Gate == model.GateRejected {
			zap.L().Info("query rejected by guard")
		} else {
			zap.L().Info("briefing complete",
				zap.String("topic", state.FinalTopic),
				zap.String("briefing_id", state.BriefingID),
				zap.Int("entities", len(state.Entities)),
			)
		}

		out := map[string]any{
			"reply":       state.Conversation[len(state.Conversation)-1].Content,
			"topic":       state.FinalTopic,
			"briefing_id": state.BriefingID,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	runCmd.Flags().StringVar(&runQuery, "query", "", "analyst query (required)")
	_ = runCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(runCmd)
}
