// Package directory resolves logical roles to reachable instance addresses,
// caching the mapping on disk between runs.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/testdeck/testdeck/internal/cache"
	"github.com/testdeck/testdeck/internal/inventory"
)

const (
	resolveTimeout = 30 * time.Second
	probeTimeout   = 2 * time.Second
)

// Cache is the instance directory: a persisted role → addresses map,
// refreshed from the cloud inventory when missing, forced, or judged stale
// by a reachability probe.
type Cache struct {
	Env string
	// PrimaryRole is the role whose first address the validity probe
	// targets.
	PrimaryRole string
	ProbePort   int
	Inventory   inventory.Source
	Disk        *cache.DiskCache
	Log         zerolog.Logger

	probeClient *http.Client
}

func (c *Cache) key() string {
	return fmt.Sprintf("instances:%s", c.Env)
}

// Resolve returns the role → addresses map. forceRefresh always re-resolves.
// validate runs a cheap reachability probe against the primary role's first
// address before trusting a cached map; validate=false trusts any non-empty
// cache as-is.
func (c *Cache) Resolve(forceRefresh, validate bool) (map[string][]string, error) {
	if !forceRefresh {
		var cached map[string][]string
		if c.Disk.Get(c.key(), &cached) && len(cached) > 0 {
			if !validate || c.probe(cached) {
				return cached, nil
			}
			c.Log.Debug().Str("env", c.Env).Msg("cached directory failed reachability probe")
		}
	}
	return c.refresh()
}

// probe issues a single short-timeout GET against the primary instance's
// daemon endpoint. Anything but a 200 within the timeout counts as invalid.
func (c *Cache) probe(instances map[string][]string) bool {
	addresses := instances[c.PrimaryRole]
	if len(addresses) == 0 {
		return false
	}

	client := c.probeClient
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}

	resp, err := client.Get(fmt.Sprintf("http://%s:%d/status", addresses[0], c.ProbePort))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Cache) refresh() (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	instances, err := c.Inventory.Instances(ctx, c.Env, true)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh instance directory: %w", err)
	}

	resolved := make(map[string][]string)
	for _, inst := range instances {
		address := inst.PublicIP
		if address == "" {
			address = inst.PrivateIP
		}
		if address == "" || inst.Role == "" {
			c.Log.Debug().Str("instance", inst.ID).Msg("skipping unaddressable or untagged instance")
			continue
		}
		resolved[inst.Role] = append(resolved[inst.Role], address)
	}
	for role := range resolved {
		sort.Strings(resolved[role])
	}

	if err := c.Disk.Set(c.key(), resolved, 0); err != nil {
		return nil, fmt.Errorf("failed to persist instance directory: %w", err)
	}

	c.Log.Debug().Str("env", c.Env).Int("roles", len(resolved)).Msg("instance directory refreshed")
	return resolved, nil
}
