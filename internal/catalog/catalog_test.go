package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/apl-daily-backend/internal/domain"
)

func TestBundledCatalog(t *testing.T) {
	c, err := Bundled()
	require.NoError(t, err)
	require.Greater(t, c.Len(), 1)

	ids := c.IDs()
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i], "ids must be ascending")
	}

	p, ok := c.Get(37)
	require.True(t, ok)
	assert.Equal(t, "House Cluster", p.Title)
	assert.NotEmpty(t, p.ImagePrompt)
}

func TestGetUnknownID(t *testing.T) {
	c, err := Bundled()
	require.NoError(t, err)

	p, ok := c.Get(99999)
	assert.False(t, ok)
	assert.Equal(t, domain.Pattern{}, p)
}

func TestAllReturnsCopy(t *testing.T) {
	c, err := Bundled()
	require.NoError(t, err)

	all := c.All()
	all[0].Title = "mutated"

	first, _ := c.Get(all[0].ID)
	assert.NotEqual(t, "mutated", first.Title)
}

func TestNewRejectsBadInput(t *testing.T) {
	cases := map[string][]domain.Pattern{
		"empty":        nil,
		"zero id":      {{ID: 0, Title: "x"}},
		"missing name": {{ID: 1}},
		"duplicate":    {{ID: 1, Title: "a"}, {ID: 1, Title: "b"}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(in)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("patterns:\n  - id: 1\n    title: A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	in := []domain.Pattern{
		{ID: 2, Title: "The Distribution of Towns", Problem: "P.", Solution: "S."},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	c, err := Load(&buf)
	require.NoError(t, err)
	p, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, "S.", p.Solution)
	assert.Equal(t, DefaultImagePrompt("The Distribution of Towns", "P."), p.ImagePrompt)
}

func TestOpenUsesFileWhenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - id: 5\n    title: Lace of Country Streets\n"), 0o644))

	c, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, c.IDs())
}
