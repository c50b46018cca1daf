package selector

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
)

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestShuffleGolden(t *testing.T) {
	assert.Equal(t, []int{10, 1, 4, 8, 6, 3, 9, 7, 5, 2}, Shuffle(seq(1, 10), DefaultSeed))

	full := Shuffle(seq(1, 253), DefaultSeed)
	assert.Equal(t, []int{196, 237, 57, 149, 104, 210, 219, 124, 24, 168}, full[:10])
}

func TestShuffleIsPermutation(t *testing.T) {
	in := seq(1, 253)
	out := Shuffle(in, DefaultSeed)
	sorted := append([]int(nil), out...)
	sort.Ints(sorted)
	assert.Equal(t, in, sorted)
	assert.Equal(t, seq(1, 253), in, "input must not be modified")
}

func TestDayNumberUsesUTC(t *testing.T) {
	assert.Equal(t, int64(0), DayNumber(time.Date(1970, 1, 1, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, int64(19723), DayNumber(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	// 2024-01-01 20:00 in New York is already 2024-01-02 in UTC.
	ny := time.FixedZone("EST", -5*3600)
	assert.Equal(t, int64(19724), DayNumber(time.Date(2024, 1, 1, 20, 0, 0, 0, ny)))

	// 2024-01-02 03:00 in Tokyo is still 2024-01-01 in UTC.
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, int64(19723), DayNumber(time.Date(2024, 1, 2, 3, 0, 0, 0, tokyo)))
}

func TestSelectChangesExactlyAtUTCMidnight(t *testing.T) {
	s, err := New(seq(1, 253), DefaultSeed)
	require.NoError(t, err)

	midnight := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	before := s.Select(midnight.Add(-time.Nanosecond))
	at := s.Select(midnight)
	assert.NotEqual(t, before, at)
	assert.Equal(t, at, s.Select(midnight.Add(24*time.Hour-time.Nanosecond)))

	// Same instant seen from another zone selects the same id.
	assert.Equal(t, at, s.Select(midnight.In(time.FixedZone("X", 7*3600+1800))))
}

func TestSelectGolden(t *testing.T) {
	s, err := New(seq(1, 253), DefaultSeed)
	require.NoError(t, err)

	day := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 34, s.Select(day))
	assert.Equal(t, 59, s.SelectRun(day, 1))
}

func TestSelectIsDeterministicAndInCatalog(t *testing.T) {
	c, err := catalog.Bundled()
	require.NoError(t, err)
	s, err := New(c.IDs(), DefaultSeed)
	require.NoError(t, err)
	require.NoError(t, s.Validate(c))

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 3*c.Len(); d++ {
		ts := start.AddDate(0, 0, d).Add(13 * time.Hour)
		id := s.Select(ts)
		assert.Equal(t, id, s.Select(ts))
		_, ok := c.Get(id)
		assert.True(t, ok, "id %d not in catalog", id)
	}
}

func TestEveryIDOncePerCycle(t *testing.T) {
	ids := []int{3, 9, 27, 81}
	s, err := New(ids, DefaultSeed)
	require.NoError(t, err)

	seen := map[int]int{}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < len(ids); d++ {
		seen[s.Select(start.AddDate(0, 0, d))]++
	}
	assert.Len(t, seen, len(ids))
}

func TestNextPrev(t *testing.T) {
	s, err := New(seq(1, 10), DefaultSeed)
	require.NoError(t, err)

	for _, id := range seq(1, 10) {
		next, ok := s.Next(id)
		require.True(t, ok)
		back, ok := s.Prev(next)
		require.True(t, ok)
		assert.Equal(t, id, back)
	}

	last := s.At(s.Len() - 1)
	first, _ := s.Next(last)
	assert.Equal(t, s.At(0), first, "next wraps around")

	_, ok := s.Next(42)
	assert.False(t, ok)
}

func TestValidateReportsMissingIDs(t *testing.T) {
	c, err := catalog.Bundled()
	require.NoError(t, err)
	s, err := New(append(c.IDs(), 9999), DefaultSeed)
	require.NoError(t, err)
	assert.ErrorContains(t, s.Validate(c), "9999")
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]int{1, 2, 2}, DefaultSeed)
	assert.Error(t, err)
	_, err = New(nil, DefaultSeed)
	assert.Error(t, err)
}
