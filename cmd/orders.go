package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/osint-cli/internal/scheduler"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Show the standing orders the scheduler will run",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := scheduler.LoadOrders(cfg.Scheduler.OrdersFile)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(orders)
	},
}

func init() {
	rootCmd.AddCommand(ordersCmd)
}
