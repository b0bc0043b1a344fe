package fleet

import (
	"fmt"
	"sync"
)

// Target identifies one remote session endpoint. Cache identity is the full
// user@host:port triple, so the same host reached as a different user or on
// a different port gets its own connection.
type Target struct {
	User string
	Host string
	Port int
}

func (t Target) Key() string {
	return fmt.Sprintf("%s@%s:%d", t.User, t.Host, t.Port)
}

// Session is one authenticated connection to a target, able to run commands
// sequentially.
type Session interface {
	Run(command string) (stdout, stderr []string, err error)
	Alive() bool
	Close() error
}

// Dialer opens new sessions.
type Dialer interface {
	Dial(target Target) (Session, error)
}

// ConnCache reuses authenticated sessions across fleet calls. Lookups and
// inserts on different keys never block each other; a racing insert on the
// same key resolves to a single cached session, and the losing dial is
// closed before anyone can run commands on it.
type ConnCache struct {
	mu       sync.RWMutex
	sessions map[string]Session
	dialer   Dialer
}

func NewConnCache(dialer Dialer) *ConnCache {
	return &ConnCache{
		sessions: make(map[string]Session),
		dialer:   dialer,
	}
}

// Get returns a live cached session for the target, dialing a fresh one when
// the cache misses or the cached session is no longer alive.
func (c *ConnCache) Get(target Target) (Session, error) {
	key := target.Key()

	c.mu.RLock()
	cached, ok := c.sessions[key]
	c.mu.RUnlock()
	if ok && cached.Alive() {
		return cached, nil
	}

	session, err := c.dialer.Dial(target)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", key, err)
	}

	// A racing Get may have installed a live session while we were dialing;
	// prefer it and discard our own dial, which nobody else can hold yet. A
	// session we do replace is left open: its holder may be mid-command, and
	// the liveness check retires it on the next lookup.
	c.mu.Lock()
	if current, ok := c.sessions[key]; ok && current != cached && current.Alive() {
		c.mu.Unlock()
		session.Close()
		return current, nil
	}
	c.sessions[key] = session
	c.mu.Unlock()

	return session, nil
}

// Close closes every cached session and empties the cache.
func (c *ConnCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, session := range c.sessions {
		session.Close()
		delete(c.sessions, key)
	}
}
