package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
)

var (
	importDir string
	importOut string
)

var importPatternsCmd = &cobra.Command{
	Use:   "import-patterns",
	Short: "Convert a directory of pattern markdown files into a catalog file",
	Long: `import-patterns reads files named "Title (N).md" containing "### Problem",
"### Solution" and optional "### Related Patterns" sections, and writes the
YAML catalog consumed by PATTERNS_FILE.

Examples:
  apl-daily import-patterns --dir ./patterns --out patterns.yaml
  apl-daily import-patterns --dir ./patterns > patterns.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns, skipped, err := catalog.ParseDir(importDir)
		if err != nil {
			return err
		}
		if _, err := catalog.New(patterns); err != nil {
			return fmt.Errorf("imported catalog is invalid: %w", err)
		}

		names := make([]string, 0, len(skipped))
		for name := range skipped {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", name, skipped[name])
		}

		var w io.Writer = cmd.OutOrStdout()
		if importOut != "" && importOut != "-" {
			f, err := os.Create(importOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := catalog.Encode(w, patterns); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "imported %d patterns\n", len(patterns))
		return nil
	},
}

func init() {
	importPatternsCmd.Flags().StringVar(&importDir, "dir", "", "directory of pattern markdown files")
	importPatternsCmd.Flags().StringVarP(&importOut, "out", "o", "", "output file (default stdout)")
	_ = importPatternsCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(importPatternsCmd)
}
