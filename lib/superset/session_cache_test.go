package supersethandler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestCache(now time.Time) *SessionCache {
	c := NewSessionCache(3300*time.Second, 60*time.Second)
	c.now = func() time.Time { return now }
	return c
}

func TestSessionCache(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run(`valid session makes no upstream call`, func(t *testing.T) {
		c := newTestCache(now)
		c.Store(Session{AccessToken: "a", CSRFToken: "c", ExpiresAt: now.Add(120 * time.Second)})
		var calls int32
		session, err := c.Get(context.Background(), func(ctx context.Context) (Session, error) {
			atomic.AddInt32(&calls, 1)
			return Session{}, nil
		})
		require.Nil(t, err)
		require.Equal(t, "a", session.AccessToken)
		require.Equal(t, "c", session.CSRFToken)
		require.Equal(t, int32(0), calls)
	})

	t.Run(`empty cache logs in once`, func(t *testing.T) {
		c := newTestCache(now)
		var calls int32
		session, err := c.Get(context.Background(), func(ctx context.Context) (Session, error) {
			atomic.AddInt32(&calls, 1)
			return Session{AccessToken: "a", CSRFToken: "c"}, nil
		})
		require.Nil(t, err)
		require.Equal(t, int32(1), calls)
		require.Equal(t, now.Add(3300*time.Second), session.ExpiresAt)

		stored, ok := c.Peek()
		require.True(t, ok)
		require.Equal(t, session, stored)
	})

	t.Run(`session inside the safety margin is refreshed`, func(t *testing.T) {
		c := newTestCache(now)
		c.Store(Session{AccessToken: "old", CSRFToken: "old", ExpiresAt: now.Add(30 * time.Second)})
		var calls int32
		session, err := c.Get(context.Background(), func(ctx context.Context) (Session, error) {
			atomic.AddInt32(&calls, 1)
			return Session{AccessToken: "new", CSRFToken: "new"}, nil
		})
		require.Nil(t, err)
		require.Equal(t, int32(1), calls)
		require.Equal(t, "new", session.AccessToken)
	})

	t.Run(`session with a missing half is refreshed`, func(t *testing.T) {
		c := newTestCache(now)
		c.Store(Session{AccessToken: "a", ExpiresAt: now.Add(time.Hour)})
		var calls int32
		_, err := c.Get(context.Background(), func(ctx context.Context) (Session, error) {
			atomic.AddInt32(&calls, 1)
			return Session{AccessToken: "a", CSRFToken: "c"}, nil
		})
		require.Nil(t, err)
		require.Equal(t, int32(1), calls)
	})

	t.Run(`failed login leaves cache untouched`, func(t *testing.T) {
		c := newTestCache(now)
		_, err := c.Get(context.Background(), func(ctx context.Context) (Session, error) {
			return Session{}, errors.New("boom")
		})
		require.EqualError(t, err, "boom")
		_, ok := c.Peek()
		require.False(t, ok)
	})

	t.Run(`concurrent callers share one login`, func(t *testing.T) {
		c := newTestCache(now)
		var calls int32
		acquire := func(ctx context.Context) (Session, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(50 * time.Millisecond)
			return Session{AccessToken: "a", CSRFToken: "c"}, nil
		}

		var wg sync.WaitGroup
		for n := 0; n < 20; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				session, err := c.Get(context.Background(), acquire)
				require.Nil(t, err)
				require.Equal(t, "a", session.AccessToken)
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), calls)
	})

	t.Run(`cancelled caller leaves while the login continues`, func(t *testing.T) {
		c := newTestCache(now)
		var calls int32
		started := make(chan struct{})
		release := make(chan struct{})
		acquire := func(ctx context.Context) (Session, error) {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			if ctx.Err() != nil {
				return Session{}, ctx.Err()
			}
			return Session{AccessToken: "a", CSRFToken: "c"}, nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		leaving := make(chan error, 1)
		go func() {
			_, err := c.Get(ctx, acquire)
			leaving <- err
		}()
		<-started
		cancel()
		select {
		case err := <-leaving:
			require.True(t, errors.Is(err, context.Canceled))
		case <-time.After(time.Second):
			t.Fatal("cancelled caller still waiting on the login")
		}

		staying := make(chan Session, 1)
		go func() {
			session, err := c.Get(context.Background(), acquire)
			require.Nil(t, err)
			staying <- session
		}()
		close(release)
		session := <-staying
		require.Equal(t, "a", session.AccessToken)
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))

		stored, ok := c.Peek()
		require.True(t, ok)
		require.Equal(t, "a", stored.AccessToken)
	})

	t.Run(`Invalidate drops the session`, func(t *testing.T) {
		c := newTestCache(now)
		c.Store(Session{AccessToken: "a", CSRFToken: "c", ExpiresAt: now.Add(time.Hour)})
		c.Invalidate()
		_, ok := c.Peek()
		require.False(t, ok)
	})
}
