// Package selector maps a UTC calendar day to the pattern of the day.
//
// The catalog's ids are shuffled once into a fixed permutation (Fisher-Yates,
// driven by frac(sin(seed+i)*10000)); day d selects perm[d mod n], where d is
// the number of whole days between the Unix epoch and UTC midnight of the
// requested instant. Every id appears exactly once per n-day cycle.
package selector

import (
	"fmt"
	"math"
	"time"

	"github.com/yungbote/apl-daily-backend/internal/domain"
)

// DefaultSeed keeps the published rotation stable across deployments.
const DefaultSeed = 39241012

const secondsPerDay = 24 * 60 * 60

type Resolver interface {
	Get(id int) (domain.Pattern, bool)
}

type Selector struct {
	perm []int
	pos  map[int]int
}

func New(ids []int, seed int64) (*Selector, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("selector: empty id set")
	}
	perm := Shuffle(ids, seed)
	pos := make(map[int]int, len(perm))
	for i, id := range perm {
		if _, dup := pos[id]; dup {
			return nil, fmt.Errorf("selector: duplicate id %d", id)
		}
		pos[id] = i
	}
	return &Selector{perm: perm, pos: pos}, nil
}

// Shuffle returns a permuted copy of ids. It is a pure function of its inputs.
func Shuffle(ids []int, seed int64) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	for i := len(out) - 1; i > 0; i-- {
		x := math.Sin(float64(seed)+float64(i)) * 10000
		j := int(math.Floor((x - math.Floor(x)) * float64(i+1)))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DayNumber is the count of UTC days since 1970-01-01 for t. The caller's
// location is ignored.
func DayNumber(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// Index returns the permutation slot for t. run shifts the slot forward for
// intra-day reselection; 0 is the plain daily pick.
func (s *Selector) Index(t time.Time, run int64) int {
	n := int64(len(s.perm))
	idx := (DayNumber(t) + run) % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

func (s *Selector) Select(t time.Time) int {
	return s.perm[s.Index(t, 0)]
}

func (s *Selector) SelectRun(t time.Time, run int64) int {
	return s.perm[s.Index(t, run)]
}

// At returns the id stored at slot i (taken modulo the permutation length).
func (s *Selector) At(i int) int {
	n := len(s.perm)
	return s.perm[((i%n)+n)%n]
}

// Position reports the slot of id within the permutation.
func (s *Selector) Position(id int) (int, bool) {
	i, ok := s.pos[id]
	return i, ok
}

// Next and Prev walk the permutation one slot, wrapping at either end.
func (s *Selector) Next(id int) (int, bool) { return s.step(id, 1) }
func (s *Selector) Prev(id int) (int, bool) { return s.step(id, -1) }

func (s *Selector) step(id, delta int) (int, bool) {
	i, ok := s.pos[id]
	if !ok {
		return 0, false
	}
	return s.At(i + delta), true
}

func (s *Selector) Len() int { return len(s.perm) }

func (s *Selector) Permutation() []int {
	out := make([]int, len(s.perm))
	copy(out, s.perm)
	return out
}

// Validate fails if any id the selector can produce does not resolve.
func (s *Selector) Validate(r Resolver) error {
	for _, id := range s.perm {
		if _, ok := r.Get(id); !ok {
			return fmt.Errorf("selector: id %d missing from catalog", id)
		}
	}
	return nil
}
