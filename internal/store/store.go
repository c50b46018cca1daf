// Package store is the key-value contract every piece of mutable state goes
// through. Keys passed to a Store are relative; implementations prepend the
// configured namespace.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrClosed = errors.New("store: closed")

type Store interface {
	// Get returns ok=false when the key does not exist.
	Get(ctx context.Context, key string) (val string, ok bool, err error)
	// Set writes val. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	// Incr atomically increments an integer key, creating it at 0 first.
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Keys lists relative keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// DefaultNamespace matches the key prefix used by the deployed app.
const DefaultNamespace = "apl-daily"

func namespaced(ns, key string) string {
	if ns == "" {
		return key
	}
	return ns + ":" + key
}

func stripNamespace(ns, key string) string {
	if ns == "" {
		return key
	}
	return strings.TrimPrefix(key, ns+":")
}
