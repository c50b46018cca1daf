package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
	"github.com/yungbote/apl-daily-backend/internal/platform/envutil"
	"github.com/yungbote/apl-daily-backend/internal/selector"
)

var (
	selectDate     string
	selectRun      int64
	selectDays     int
	selectPatterns string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Print the pattern selected for a date",
	Long: `select prints the pattern the rotation picks for a UTC date without touching
the state store.

Examples:
  apl-daily select
  apl-daily select --date 2024-01-01 --days 7
  apl-daily select --run 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC()
		if selectDate != "" {
			t, err := time.Parse("2006-01-02", selectDate)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			day = t
		}
		if selectDays <= 0 {
			selectDays = 1
		}

		cat, err := catalog.Open(selectPatterns)
		if err != nil {
			return err
		}
		sel, err := selector.New(cat.IDs(), selector.DefaultSeed)
		if err != nil {
			return err
		}

		for i := 0; i < selectDays; i++ {
			t := day.AddDate(0, 0, i)
			id := sel.SelectRun(t, selectRun)
			p, _ := cat.Get(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", t.Format("2006-01-02"), p.ID, p.Title)
		}
		return nil
	},
}

func init() {
	selectCmd.Flags().StringVar(&selectDate, "date", "", "UTC date, YYYY-MM-DD (default today)")
	selectCmd.Flags().Int64Var(&selectRun, "run", 0, "run offset added to the day index")
	selectCmd.Flags().IntVar(&selectDays, "days", 1, "number of consecutive days to print")
	selectCmd.Flags().StringVar(&selectPatterns, "patterns", envutil.String("PATTERNS_FILE", ""), "catalog file (default bundled)")
	rootCmd.AddCommand(selectCmd)
}
