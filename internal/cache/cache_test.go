package cache

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("query", "water damage")
	assert.True(t, strings.HasPrefix(a, "claimflow:v1:query:"))
	assert.Equal(t, a, Key("query", "water damage"))
	assert.NotEqual(t, a, Key("url", "water damage"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache[string](time.Minute, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", "v", 0))
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", "1", 0))
	require.NoError(t, c.Set("b", "2", 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache[int](time.Minute, time.Minute)
	require.NoError(t, c.Set("short", 1, 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set(Key("url", "https://example.com"), []byte("body"), 0))
	got, ok := c.Get(Key("url", "https://example.com"))
	assert.True(t, ok)
	assert.Equal(t, []byte("body"), got)

	// Expired entries are removed on read
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok = c.Get(Key("url", "https://example.com"))
	assert.False(t, ok)

	assert.NoError(t, c.Delete("never-set"))
}

func TestDiskCache_KeysWithSeparators(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	require.NoError(t, c.Set("https://example.com/a/../b", []byte("one"), 0))
	require.NoError(t, c.Set("https://example.com/b", []byte("two"), 0))

	got, ok := c.Get("https://example.com/a/../b")
	require.True(t, ok)
	assert.Equal(t, []byte("one"), got)
	got, ok = c.Get("https://example.com/b")
	require.True(t, ok)
	assert.Equal(t, []byte("two"), got)
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, c.Set("fresh", []byte("f"), time.Hour))
	require.NoError(t, c.Set("stale", []byte("s"), time.Minute))

	c.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := c.Get("fresh")
	assert.True(t, ok)

	removed, err = NewDiskCache(filepath.Join(dir, "missing"), time.Hour).Prune()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	// A fresh layer over the same directory only has the disk copy
	fresh := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := fresh.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, inMemory := fresh.hot.Get("k")
	assert.True(t, inMemory)

	require.NoError(t, fresh.Clear())
	_, ok = fresh.Get("k")
	assert.False(t, ok)
}
