package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const diskSuffix = ".doc.json"

// DiskCache persists fetched reference documents across process restarts.
// Files are sharded by the first byte of the key digest.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache returns a cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}
}

// storedDocument is the on-disk form. Key is kept so a digest collision or
// a hand-edited file reads as a miss instead of the wrong document.
type storedDocument struct {
	Key      string    `json:"key"`
	Body     []byte    `json:"body"`
	StoredAt time.Time `json:"stored_at"`
	Expires  time.Time `json:"expires"`
}

func (c *DiskCache) Get(key string) ([]byte, bool) {
	doc, err := c.read(c.path(key))
	if err != nil || doc.Key != key {
		return nil, false
	}
	if !c.now().Before(doc.Expires) {
		_ = os.Remove(c.path(key))
		return nil, false
	}
	return doc.Body, true
}

// Set writes through a temp file so readers never see a partial document
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	raw, err := json.Marshal(storedDocument{Key: key, Body: value, StoredAt: now, Expires: now.Add(ttl)})
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache shard: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pending-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit document: %w", err)
	}
	return nil
}

func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Prune removes expired and unreadable documents and reports how many went
func (c *DiskCache) Prune() (int, error) {
	now := c.now()
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, diskSuffix) {
			return nil
		}
		doc, readErr := c.read(path)
		if readErr == nil && now.Before(doc.Expires) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (c *DiskCache) read(path string) (storedDocument, error) {
	var doc storedDocument
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

// path maps any key to a safe file name; keys may contain ':' or '/'
func (c *DiskCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, name[:2], name+diskSuffix)
}
