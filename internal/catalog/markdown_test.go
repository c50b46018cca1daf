package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const houseCluster = `# House Cluster

### Problem
> People will not feel comfortable in their houses unless a group of houses
> forms a cluster.

### Solution
> Arrange houses to form very rough, but identifiable clusters.

### Related Patterns
... the fundamental unit - [[Identifiable Neighborhood (14)]].
`

func TestParseMarkdown(t *testing.T) {
	p, err := ParseMarkdown("House Cluster (37).md", houseCluster)
	require.NoError(t, err)

	assert.Equal(t, 37, p.ID)
	assert.Equal(t, "House Cluster", p.Title)
	assert.Equal(t, "People will not feel comfortable in their houses unless a group of houses\nforms a cluster.", p.Problem)
	assert.Equal(t, "Arrange houses to form very rough, but identifiable clusters.", p.Solution)
	assert.Contains(t, p.RelatedPatterns, "[[Identifiable Neighborhood (14)]]")
	assert.Contains(t, p.ImagePrompt, `"House Cluster"`)
}

func TestParseMarkdownErrors(t *testing.T) {
	_, err := ParseMarkdown("House Cluster.md", houseCluster)
	assert.ErrorContains(t, err, "invalid pattern file name")

	_, err = ParseMarkdown("House Cluster (37).md", "### Problem\nonly a problem\n")
	assert.ErrorContains(t, err, "missing Problem or Solution")
}

func TestParseDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "House Cluster (37).md"), []byte(houseCluster), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Row Houses (38).md"), []byte("### Solution\nx\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	patterns, skipped, err := ParseDir(dir)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 37, patterns[0].ID)
	assert.Contains(t, skipped, "Row Houses (38).md")
	assert.NotContains(t, skipped, "README.txt")
}
