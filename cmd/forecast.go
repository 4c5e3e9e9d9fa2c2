package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var forecastTopic string

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Generate a scenario forecast from stored briefings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		forecast, err := env.Engine.Forecast(ctx, forecastTopic)
		if err != nil {
			return eris.Wrap(err, "forecast")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(forecast)
	},
}

func init() {
	forecastCmd.Flags().StringVar(&forecastTopic, "topic", "", "forecast topic (required)")
	_ = forecastCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(forecastCmd)
}
