package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	str      *string
	set      map[string]struct{}
	expireAt time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// Memory is a process-local Store. It is used when no Redis address is
// configured and by tests that do not need Redis semantics.
type Memory struct {
	mu     sync.Mutex
	data   map[string]*memEntry
	now    func() time.Time
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: map[string]*memEntry{}, now: time.Now}
}

// SetClock replaces the time source used for expiry.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// lookup returns the live entry for key, evicting it if expired. Caller holds mu.
func (m *Memory) lookup(key string) *memEntry {
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return nil
	}
	return e
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		return "", false, nil
	}
	if e.str == nil {
		return "", false, wrongType("get", key)
	}
	return *e.str, true, nil
}

func (m *Memory) Set(_ context.Context, key, val string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	e := &memEntry{str: &val}
	if ttl > 0 {
		e.expireAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		e = &memEntry{str: new(string)}
		*e.str = "0"
		m.data[key] = e
	}
	if e.str == nil {
		return 0, wrongType("incr", key)
	}
	n, err := strconv.ParseInt(*e.str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("memory incr %s: value is not an integer", key)
	}
	n++
	s := strconv.FormatInt(n, 10)
	e.str = &s
	return n, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		return nil
	}
	if ttl <= 0 {
		delete(m.data, key)
		return nil
	}
	e.expireAt = m.now().Add(ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) && m.lookup(k) != nil {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		e = &memEntry{set: map[string]struct{}{}}
		m.data[key] = e
	}
	if e.set == nil {
		return wrongType("sadd", key)
	}
	for _, mem := range members {
		e.set[mem] = struct{}{}
	}
	return nil
}

func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		return nil
	}
	if e.set == nil {
		return wrongType("srem", key)
	}
	for _, mem := range members {
		delete(e.set, mem)
	}
	// Redis drops empty sets.
	if len(e.set) == 0 {
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		return false, nil
	}
	if e.set == nil {
		return false, wrongType("sismember", key)
	}
	_, ok := e.set[member]
	return ok, nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	e := m.lookup(key)
	if e == nil {
		return []string{}, nil
	}
	if e.set == nil {
		return nil, wrongType("smembers", key)
	}
	out := make([]string, 0, len(e.set))
	for mem := range e.set {
		out = append(out, mem)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func wrongType(op, key string) error {
	return fmt.Errorf("memory %s %s: wrong kind of value", op, key)
}
