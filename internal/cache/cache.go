// Package cache provides TTL caches: an in-memory cache for live values
// (run logs, knowledge query results) and a memory+disk layer for fetched
// reference documents.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from arbitrary input
func Key(namespace, input string) string {
	hash := sha256.Sum256([]byte(input))
	return "claimflow:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
