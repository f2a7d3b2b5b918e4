package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, engine Engine, opts ...PoolOption) *Pool {
	t.Helper()
	// Long sweep interval keeps the background loop out of the way.
	opts = append([]PoolOption{WithSweepInterval(time.Hour)}, opts...)
	p := NewPool(engine, nil, opts...)
	t.Cleanup(p.Shutdown)
	return p
}

func TestPool_AcquireCreatesAndReuses(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine)
	ctx := context.Background()

	s1, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	assert.NotEmpty(t, s1.ID)
	assert.Equal(t, 1, s1.TestCount)
	assert.Equal(t, 1, engine.launchCount())

	// While s1 is borrowed, a second acquire opens a new session but
	// shares the launched browser.
	s2, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, 1, engine.launchCount())

	// After release, a matching acquire reuses the idle session.
	p.Release(s1.ID)
	s3, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s3.ID)
	assert.Equal(t, 2, s3.TestCount)
}

func TestPool_AcquireMatchesParameters(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine)
	ctx := context.Background()

	s1, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	p.Release(s1.ID)

	// Different headless flag must not reuse the idle chromium session.
	s2, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: false})
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, 2, engine.launchCount())

	// Different browser type launches a third browser.
	s3, err := p.Acquire(ctx, AcquireOptions{BrowserType: "firefox", Headless: true})
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s3.ID)
	assert.Equal(t, 3, engine.launchCount())
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine)
	ctx := context.Background()

	s, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)

	p.Release(s.ID)
	countAfterFirst := s.TestCount
	p.Release(s.ID)
	p.Release("no-such-session")

	assert.Equal(t, countAfterFirst, s.TestCount)

	// The session is still usable after the double release.
	again, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
	assert.Equal(t, countAfterFirst+1, again.TestCount)
}

func TestPool_NeverExceedsMaxSessions(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine, WithMaxSessions(2))
	ctx := context.Background()

	s1, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	s2, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)

	assert.Equal(t, 2, p.Stats().TotalSessions)

	// A third acquire evicts the least-recently-used session (s1).
	s3, err := p.Acquire(ctx, AcquireOptions{BrowserType: "firefox", Headless: true})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stats().TotalSessions)

	// s1 had the minimum LastUsedAt, so its context must be closed.
	assert.True(t, s1.Context.(*fakeContext).isClosed())
	assert.False(t, s2.Context.(*fakeContext).isClosed())
	assert.False(t, s3.Context.(*fakeContext).isClosed())
}

func TestPool_ExpirySweepFreesCapacity(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine, WithMaxSessions(1), WithSessionTimeout(10*time.Millisecond))
	ctx := context.Background()

	s1, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	p.Release(s1.ID)

	time.Sleep(20 * time.Millisecond)

	// The idle session expired; a differently-typed acquire gets fresh
	// capacity through the sweep rather than eviction.
	s2, err := p.Acquire(ctx, AcquireOptions{BrowserType: "firefox", Headless: true})
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.True(t, s1.Context.(*fakeContext).isClosed())
	assert.Equal(t, 1, p.Stats().TotalSessions)
}

func TestPool_BackgroundSweepClosesIdleSessions(t *testing.T) {
	engine := newFakeEngine()
	p := NewPool(engine, nil,
		WithSessionTimeout(5*time.Millisecond),
		WithSweepInterval(10*time.Millisecond),
	)
	t.Cleanup(p.Shutdown)
	ctx := context.Background()

	s, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	p.Release(s.ID)

	assert.Eventually(t, func() bool {
		return p.Stats().TotalSessions == 0
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.Context.(*fakeContext).isClosed())
}

func TestPool_AcquireErrorsPropagate(t *testing.T) {
	engine := newFakeEngine()
	engine.launchErr = errors.New("no browser binary")
	p := newTestPool(t, engine)

	_, err := p.Acquire(context.Background(), AcquireOptions{BrowserType: "chromium", Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no browser binary")

	// Context creation failures surface too.
	engine2 := newFakeEngine()
	engine2.contextErr = errors.New("context exploded")
	p2 := newTestPool(t, engine2)

	_, err = p2.Acquire(context.Background(), AcquireOptions{BrowserType: "chromium", Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context exploded")
}

func TestPool_AcquireHonorsContextCancellation(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	p := NewPool(engine, nil, WithSweepInterval(time.Hour))

	s, err := p.Acquire(context.Background(), AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)

	p.Shutdown()
	p.Shutdown()

	assert.True(t, s.Context.(*fakeContext).isClosed())
	assert.True(t, engine.closed)

	_, err = p.Acquire(context.Background(), AcquireOptions{BrowserType: "chromium", Headless: true})
	require.Error(t, err)
}

func TestPool_Stats(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPool(t, engine)
	ctx := context.Background()

	s1, err := p.Acquire(ctx, AcquireOptions{BrowserType: "chromium", Headless: true})
	require.NoError(t, err)
	_, err = p.Acquire(ctx, AcquireOptions{BrowserType: "firefox", Headless: true})
	require.NoError(t, err)
	p.Release(s1.ID)

	stats := p.Stats()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.InUseSessions)
	assert.Equal(t, DefaultMaxSessions, stats.MaxSessions)
	assert.Equal(t, 2, stats.TotalTests)
	assert.Equal(t, 1, stats.BrowserTypes["chromium"])
	assert.Equal(t, 1, stats.BrowserTypes["firefox"])
}
