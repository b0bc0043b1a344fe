package fleet

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu     sync.Mutex
	target Target
	alive  bool
	closed bool
	runs   int
	delay  time.Duration
	fail   error
	stdout []string
	stderr []string
}

func (s *fakeSession) Run(command string) ([]string, []string, error) {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail != nil {
		return nil, s.stderr, s.fail
	}
	return s.stdout, s.stderr, nil
}

func (s *fakeSession) Alive() bool { return s.alive }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeDialer struct {
	mu       sync.Mutex
	dials    int
	sessions map[string]*fakeSession
	failFor  map[string]error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{sessions: make(map[string]*fakeSession), failFor: make(map[string]error)}
}

func (d *fakeDialer) Dial(target Target) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if err := d.failFor[target.Host]; err != nil {
		return nil, err
	}
	session := &fakeSession{target: target, alive: true, stdout: []string{"ok " + target.Host}}
	d.sessions[target.Key()] = session
	return session, nil
}

type staticResolver map[string][]string

func (r staticResolver) Resolve(forceRefresh, validate bool) (map[string][]string, error) {
	return r, nil
}

func newExecutor(resolver Resolver, dialer Dialer) *Executor {
	return &Executor{
		Resolver: resolver,
		Cache:    NewConnCache(dialer),
		Config: Config{
			User:             "deck",
			Port:             22,
			GatewayRole:      "gateway",
			GatewayAdminUser: "admin",
			GatewayAdminPort: 2022,
			Workers:          4,
			TaskTimeout:      time.Second,
		},
		Log: zerolog.Nop(),
	}
}

func TestRunOnFleet_GroupsResultsByRole(t *testing.T) {
	resolver := staticResolver{
		"manager": {"10.0.0.1"},
		"worker":  {"10.0.0.2", "10.0.0.3"},
	}
	e := newExecutor(resolver, newFakeDialer())

	results, err := e.RunOnFleet("uptime", "")

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results["worker"], 2)
	res := results["worker"]["10.0.0.3"]
	assert.True(t, res.Success)
	assert.Equal(t, []string{"ok 10.0.0.3"}, res.Stdout)
}

func TestRunOnFleet_OneHostFailureIsIsolated(t *testing.T) {
	resolver := staticResolver{"worker": {"good", "bad"}}
	dialer := newFakeDialer()
	dialer.failFor["bad"] = errors.New("connection refused")
	e := newExecutor(resolver, dialer)

	results, err := e.RunOnFleet("uptime", "worker")

	require.NoError(t, err)
	assert.True(t, results["worker"]["good"].Success)
	bad := results["worker"]["bad"]
	assert.False(t, bad.Success)
	assert.ErrorContains(t, bad.Err, "connection refused")
}

func TestRunOnFleet_TaskTimeout(t *testing.T) {
	resolver := staticResolver{"worker": {"slow"}}
	dialer := newFakeDialer()
	e := newExecutor(resolver, dialer)
	e.Config.TaskTimeout = 20 * time.Millisecond

	// Pre-seed a hung session through the cache.
	session, err := e.Cache.Get(Target{User: "deck", Host: "slow", Port: 22})
	require.NoError(t, err)
	session.(*fakeSession).delay = time.Second

	results, err := e.RunOnFleet("sleep 60", "worker")

	require.NoError(t, err)
	res := results["worker"]["slow"]
	assert.False(t, res.Success)
	assert.ErrorContains(t, res.Err, "timed out")
}

func TestRunOnFleet_GatewayAdminAlias(t *testing.T) {
	resolver := staticResolver{
		"gateway": {"10.0.0.9"},
		"worker":  {"10.0.0.2"},
	}
	dialer := newFakeDialer()
	e := newExecutor(resolver, dialer)

	results, err := e.RunOnFleet("whoami", GatewayAdminRole)

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, results, GatewayAdminRole)
	_, ok := dialer.sessions["admin@10.0.0.9:2022"]
	assert.True(t, ok, "gateway host should be dialed with the admin user and port")
}

func TestRunOnFleet_UnknownRole(t *testing.T) {
	e := newExecutor(staticResolver{"worker": {"h"}}, newFakeDialer())

	_, err := e.RunOnFleet("uptime", "nonexistent")

	assert.ErrorContains(t, err, "no instances resolved")
}

func TestConnCache_ReusesLiveSessions(t *testing.T) {
	dialer := newFakeDialer()
	cache := NewConnCache(dialer)
	target := Target{User: "deck", Host: "h1", Port: 22}

	first, err := cache.Get(target)
	require.NoError(t, err)
	second, err := cache.Get(target)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, dialer.dials)
}

func TestConnCache_ReplacesDeadSessions(t *testing.T) {
	dialer := newFakeDialer()
	cache := NewConnCache(dialer)
	target := Target{User: "deck", Host: "h1", Port: 22}

	first, err := cache.Get(target)
	require.NoError(t, err)
	first.(*fakeSession).alive = false

	second, err := cache.Get(target)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, dialer.dials)
	// The dead session is left for its holder to finish with; it is only
	// dropped from the cache, never closed out from under a command.
	assert.False(t, first.(*fakeSession).closed)
}

// raceDialer runs a hook before the first dial, simulating another Get
// completing in the window between the cache check and the insert.
type raceDialer struct {
	inner *fakeDialer
	hook  func()
}

func (d *raceDialer) Dial(target Target) (Session, error) {
	if d.hook != nil {
		hook := d.hook
		d.hook = nil
		hook()
	}
	return d.inner.Dial(target)
}

func TestConnCache_RacingDialPrefersInstalledSession(t *testing.T) {
	inner := newFakeDialer()
	dialer := &raceDialer{inner: inner}
	cache := NewConnCache(dialer)
	target := Target{User: "deck", Host: "h1", Port: 22}

	var winner Session
	dialer.hook = func() {
		var err error
		winner, err = cache.Get(target)
		require.NoError(t, err)
	}

	got, err := cache.Get(target)

	require.NoError(t, err)
	assert.Same(t, winner, got, "the session already in the cache wins the race")
	assert.Equal(t, 2, inner.dials)
	assert.False(t, winner.(*fakeSession).closed)
	for _, session := range inner.sessions {
		if session != winner {
			assert.True(t, session.closed, "the losing dial has no holder and is closed")
		}
	}
}

func TestConnCache_DistinctUsersGetDistinctSessions(t *testing.T) {
	dialer := newFakeDialer()
	cache := NewConnCache(dialer)

	a, err := cache.Get(Target{User: "deck", Host: "h1", Port: 22})
	require.NoError(t, err)
	b, err := cache.Get(Target{User: "admin", Host: "h1", Port: 22})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, dialer.dials)
}

func TestTargetKey(t *testing.T) {
	assert.Equal(t, "deck@10.0.0.1:22", Target{User: "deck", Host: "10.0.0.1", Port: 22}.Key())
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"one"}, splitLines("one\n"))
	assert.Equal(t, []string{"one", "two"}, splitLines("one\ntwo"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb\n"))
}
