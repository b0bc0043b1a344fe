package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testdeck/testdeck/internal/cache"
	"github.com/testdeck/testdeck/internal/inventory"
)

type fakeInventory struct {
	calls     int
	instances []inventory.Instance
	err       error
}

func (f *fakeInventory) Instances(ctx context.Context, envTag string, runningOnly bool) ([]inventory.Instance, error) {
	f.calls++
	return f.instances, f.err
}

func (f *fakeInventory) Stacks(context.Context, string) ([]inventory.Stack, error) {
	return nil, nil
}

func (f *fakeInventory) FileSystems(context.Context, string) ([]inventory.FileSystem, error) {
	return nil, nil
}

func newCache(t *testing.T, inv inventory.Source) *Cache {
	t.Helper()
	disk, err := cache.NewDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	return &Cache{
		Env:         "test-env",
		PrimaryRole: "manager",
		ProbePort:   8000,
		Inventory:   inv,
		Disk:        disk,
		Log:         zerolog.Nop(),
	}
}

func seed(t *testing.T, c *Cache, instances map[string][]string) {
	t.Helper()
	require.NoError(t, c.Disk.Set(c.key(), instances, 0))
}

func TestResolve_EmptyCacheAlwaysResolves(t *testing.T) {
	inv := &fakeInventory{instances: []inventory.Instance{
		{ID: "i-1", Role: "manager", PublicIP: "198.51.100.1", State: "running"},
		{ID: "i-2", Role: "worker", PublicIP: "198.51.100.2", State: "running"},
		{ID: "i-3", Role: "worker", PrivateIP: "10.0.0.3", State: "running"},
	}}
	c := newCache(t, inv)

	resolved, err := c.Resolve(false, true)

	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, map[string][]string{
		"manager": {"198.51.100.1"},
		"worker":  {"10.0.0.3", "198.51.100.2"},
	}, resolved)

	// The refreshed map is persisted: a validate=false lookup now trusts it
	// without touching the inventory again.
	again, err := c.Resolve(false, false)
	require.NoError(t, err)
	assert.Equal(t, resolved, again)
	assert.Equal(t, 1, inv.calls)
}

func TestResolve_ProbeSuccessTrustsCache(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer probe.Close()
	host, port := splitHostPort(t, probe.URL)

	inv := &fakeInventory{}
	c := newCache(t, inv)
	c.ProbePort = port
	seed(t, c, map[string][]string{"manager": {host}})

	resolved, err := c.Resolve(false, true)

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"manager": {host}}, resolved)
	assert.Zero(t, inv.calls, "inventory must not be called when the probe passes")
}

func TestResolve_ProbeFailureRefreshes(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer probe.Close()
	host, port := splitHostPort(t, probe.URL)

	inv := &fakeInventory{instances: []inventory.Instance{
		{ID: "i-1", Role: "manager", PublicIP: "198.51.100.9", State: "running"},
	}}
	c := newCache(t, inv)
	c.ProbePort = port
	seed(t, c, map[string][]string{"manager": {host}})

	resolved, err := c.Resolve(false, true)

	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, map[string][]string{"manager": {"198.51.100.9"}}, resolved)
}

func TestResolve_ForceRefreshSkipsCacheAndProbe(t *testing.T) {
	inv := &fakeInventory{instances: []inventory.Instance{
		{ID: "i-1", Role: "manager", PublicIP: "198.51.100.9", State: "running"},
	}}
	c := newCache(t, inv)
	seed(t, c, map[string][]string{"manager": {"203.0.113.1"}})

	resolved, err := c.Resolve(true, true)

	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, []string{"198.51.100.9"}, resolved["manager"])
}

func TestResolve_SkipsUnaddressableInstances(t *testing.T) {
	inv := &fakeInventory{instances: []inventory.Instance{
		{ID: "i-1", Role: "manager", PublicIP: "198.51.100.1"},
		{ID: "i-2", Role: ""},
		{ID: "i-3", Role: "worker"},
	}}
	c := newCache(t, inv)

	resolved, err := c.Resolve(false, false)

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"manager": {"198.51.100.1"}}, resolved)
}

func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}
