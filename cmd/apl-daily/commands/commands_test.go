package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), errOut.String(), err
}

func TestSelectPrintsDailyPattern(t *testing.T) {
	out, _, err := run(t, "select", "--date", "2024-01-01", "--days", "2", "--run", "0")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024-01-01\t106\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-02\t"), lines[1])
}

func TestSelectRejectsBadDate(t *testing.T) {
	_, _, err := run(t, "select", "--date", "01/02/2024", "--days", "1")
	require.Error(t, err)
}

func TestImportPatterns(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("Independent Regions (1).md", "### Problem\n> Metropolitan regions will not come to balance.\n\n### Solution\nSupport regions of 2-10 million.\n")
	write("Mosaic of Subcultures (8).md", "### Problem\nThe homogeneous city kills variety.\n### Solution\nFoster many subcultures.\n### Related Patterns\nIndependent Regions (1)\n")
	write("notes.md", "not a pattern")

	outFile := filepath.Join(t.TempDir(), "patterns.yaml")
	_, stderr, err := run(t, "import-patterns", "--dir", dir, "--out", outFile)
	require.NoError(t, err)
	assert.Contains(t, stderr, "imported 2 patterns")
	assert.Contains(t, stderr, "skipped notes.md")

	cat, err := catalog.LoadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 8}, cat.IDs())
	p, ok := cat.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Independent Regions", p.Title)
	assert.NotContains(t, p.Problem, ">")
}
