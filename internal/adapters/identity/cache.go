package identity

import (
	"sync"
	"time"

	"leaderdesk/internal/domain"
)

// SessionCache memoizes token validations so the identity backend is
// not hit on every request. Entries expire after the configured TTL.
type SessionCache struct {
	sessions sync.Map
	ttl      time.Duration
}

// cacheEntry holds a validated session with expiration metadata.
type cacheEntry struct {
	session   *domain.Session
	leader    *domain.Leader
	expiresAt time.Time
}

// NewSessionCache creates a session cache with the given TTL.
func NewSessionCache(ttl time.Duration) *SessionCache {
	c := &SessionCache{ttl: ttl}
	go c.cleanup()
	return c
}

// Get returns the cached session and leader for a token, if present
// and not expired.
func (c *SessionCache) Get(token string) (*domain.Session, *domain.Leader, bool) {
	value, ok := c.sessions.Load(token)
	if !ok {
		return nil, nil, false
	}

	entry := value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.sessions.Delete(token)
		return nil, nil, false
	}
	return entry.session, entry.leader, true
}

// Set stores a validated session and its leader profile.
func (c *SessionCache) Set(token string, session *domain.Session, leader *domain.Leader) {
	c.sessions.Store(token, &cacheEntry{
		session:   session,
		leader:    leader,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Invalidate drops a token, e.g. on logout.
func (c *SessionCache) Invalidate(token string) {
	c.sessions.Delete(token)
}

// cleanup periodically removes expired entries.
func (c *SessionCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		now := time.Now()
		c.sessions.Range(func(key, value interface{}) bool {
			if now.After(value.(*cacheEntry).expiresAt) {
				c.sessions.Delete(key)
			}
			return true
		})
	}
}
