package cache

import (
	"errors"
	"time"
)

// LayeredCache fronts a DiskCache with a MemoryCache. Disk hits are copied
// into memory so repeated knowledge rebuilds in one process skip the disk.
type LayeredCache struct {
	hot  *MemoryCache[[]byte]
	cold *DiskCache
}

// NewLayeredCache keeps documents hotTTL in memory and coldTTL on disk under dir
func NewLayeredCache(hotTTL time.Duration, dir string, coldTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		hot:  NewMemoryCache[[]byte](hotTTL, 10*time.Minute),
		cold: NewDiskCache(dir, coldTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if body, ok := c.hot.Get(key); ok {
		return body, true
	}
	body, ok := c.cold.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.hot.Set(key, body, 0)
	return body, true
}

// Set writes disk first; a document only in memory would vanish on restart
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.cold.Set(key, value, ttl); err != nil {
		return err
	}
	return c.hot.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.hot.Delete(key), c.cold.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.hot.Clear(), c.cold.Clear())
}

// Prune drops expired documents from disk
func (c *LayeredCache) Prune() (int, error) {
	return c.cold.Prune()
}
