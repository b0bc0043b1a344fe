package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type entry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
}

// DiskCache persists JSON entries under ~/.<app>/cache. Entries written with
// a zero expiration never expire and stay valid until overwritten.
type DiskCache struct {
	mu       sync.RWMutex
	cacheDir string
}

func NewDiskCache(appName string) (*DiskCache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	cacheDir := filepath.Join(homeDir, fmt.Sprintf(".%s", appName), "cache")
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &DiskCache{cacheDir: cacheDir}, nil
}

// NewDiskCacheAt uses an explicit directory instead of the home-relative
// default, mainly for tests.
func NewDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskCache{cacheDir: dir}, nil
}

func (c *DiskCache) getCachePath(key string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("cache_%x.json", md5.Sum([]byte(key))))
}

// Get loads the entry for key into value. It returns false on a miss, an
// expired entry, or an unreadable file; a corrupt file is removed so the
// next Set starts clean.
func (c *DiskCache) Get(key string, value interface{}) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cachePath := c.getCachePath(key)
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		os.Remove(cachePath)
		return false
	}

	if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
		os.Remove(cachePath)
		return false
	}

	return json.Unmarshal(e.Data, value) == nil
}

// Set overwrites the entry for key in place. A zero expiration makes the
// entry permanent.
func (c *DiskCache) Set(key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	e := entry{Data: data}
	if expiration > 0 {
		e.ExpiresAt = time.Now().Add(expiration)
	}

	out, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.getCachePath(key), out, 0600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Delete drops the entry for key if present.
func (c *DiskCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	os.Remove(c.getCachePath(key))
}
