// Package caching keeps fetched response bodies on disk for a fixed TTL.
package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores one file per key under a directory. Entries older than
// the TTL are treated as missing.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewCache creates the cache directory if needed.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.path
}

func (c *Cache) file(key string) string {
	return filepath.Join(c.path, fmt.Sprintf("%x", sha256.Sum256([]byte(key))))
}

func (c *Cache) expired(info os.FileInfo) bool {
	return c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl
}

// Get returns the entry for key if it exists and has not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	name := c.file(key)
	info, err := os.Stat(name)
	if err != nil || c.expired(info) {
		return nil, false
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes the entry for key. The write is atomic so concurrent
// readers never see a partial entry.
func (c *Cache) Set(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.path, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.file(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) error {
	if err := os.Remove(c.file(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Purge removes expired entries and returns how many were deleted.
func (c *Cache) Purge() (int, error) {
	entries, err := os.ReadDir(c.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || e.IsDir() || !c.expired(info) {
			continue
		}
		if err := os.Remove(filepath.Join(c.path, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
