package commands

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/apl-daily-backend/internal/app"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one pattern change check and notify subscribers",
	Long: `check performs the same work as GET /api/notifications/check: it compares
today's pattern with the last announced one and pushes to every subscriber
when they differ. Intended for cron hosts that cannot reach the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := app.New(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Services.Check.Run(ctx, time.Now())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
