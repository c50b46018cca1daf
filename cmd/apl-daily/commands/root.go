package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/apl-daily-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "apl-daily",
	Short: "APL Daily frame backend",
	Long: `apl-daily serves the daily A Pattern Language frame: one pattern per day,
bookmarks, and push notifications to Farcaster clients when the pattern changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func SetVersionInfo(v, c string) {
	app.Version = v
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", v, c)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
