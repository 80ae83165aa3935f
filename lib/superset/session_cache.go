package supersethandler

import (
	"context"
	"time"

	"superset-embed-gateway/lib/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const sessionCacheKey = "superset-admin-session"

// Session is the admin access token together with the CSRF claim carried inside it.
// Both are acquired together and never updated separately.
type Session struct {
	AccessToken string
	CSRFToken   string
	ExpiresAt   time.Time
}

type acquireFunc func(ctx context.Context) (Session, error)

// SessionCache holds at most one admin session. Concurrent callers that find it
// missing or stale share a single upstream login.
type SessionCache struct {
	store  *cache.Cache
	flight singleflight.Group
	ttl    time.Duration
	margin time.Duration
	now    func() time.Time
}

func NewSessionCache(ttl, margin time.Duration) *SessionCache {
	return &SessionCache{
		store:  cache.New(ttl, 10*time.Minute),
		ttl:    ttl,
		margin: margin,
		now:    time.Now,
	}
}

// Get returns the cached session when it stays valid for longer than the safety
// margin, otherwise it calls acquire once for all waiting callers and replaces the entry.
// A caller whose ctx ends returns ctx.Err() while the shared login carries on.
func (c *SessionCache) Get(ctx context.Context, acquire acquireFunc) (Session, error) {
	if session, ok := c.lookup(); ok {
		metrics.RecordSessionCache(true)
		return session, nil
	}
	metrics.RecordSessionCache(false)

	ch := c.flight.DoChan(sessionCacheKey, func() (interface{}, error) {
		// a flight that finished between lookup and Do already stored a fresh session
		if session, ok := c.lookup(); ok {
			return session, nil
		}
		issuedAt := c.now()
		// a caller leaving early must not fail the login the others wait on
		session, err := acquire(context.WithoutCancel(ctx))
		if err != nil {
			return Session{}, err
		}
		session.ExpiresAt = issuedAt.Add(c.ttl)
		c.Store(session)
		return session, nil
	})
	select {
	case <-ctx.Done():
		return Session{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Session{}, res.Err
		}
		return res.Val.(Session), nil
	}
}

func (c *SessionCache) Store(session Session) {
	c.store.Set(sessionCacheKey, session, c.ttl)
}

// Peek returns the stored session regardless of its expiry.
func (c *SessionCache) Peek() (Session, bool) {
	value, ok := c.store.Get(sessionCacheKey)
	if !ok {
		return Session{}, false
	}
	return value.(Session), true
}

func (c *SessionCache) Invalidate() {
	c.store.Delete(sessionCacheKey)
}

func (c *SessionCache) lookup() (Session, bool) {
	session, ok := c.Peek()
	if !ok || session.AccessToken == "" || session.CSRFToken == "" {
		return Session{}, false
	}
	if !session.ExpiresAt.After(c.now().Add(c.margin)) {
		return Session{}, false
	}
	return session, true
}
