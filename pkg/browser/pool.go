package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/verity/pkg/logging"
)

const (
	// DefaultMaxSessions bounds the number of concurrently-open sessions.
	DefaultMaxSessions = 5

	// DefaultSessionTimeout is how long an idle session lives before the
	// sweep closes it.
	DefaultSessionTimeout = 300 * time.Second

	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 60 * time.Second

	// DefaultViewportWidth and DefaultViewportHeight apply when the caller
	// does not request a viewport.
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// AcquireOptions selects or configures the session to borrow.
type AcquireOptions struct {
	BrowserType string
	Headless    bool
	Viewport    *Viewport
	UserAgent   string
	Extra       map[string]interface{}
}

// Pool manages a bounded set of browser sessions, reusing them across test
// runs and closing them when idle too long. All state mutation happens under
// a single mutex; the driver calls themselves run outside it only where the
// affected resources are already unlinked from the pool.
type Pool struct {
	mu       sync.Mutex
	engine   Engine
	sessions map[string]*Session
	browsers map[string]Browser // keyed by "{type}_{headless}"

	maxSessions    int
	sessionTimeout time.Duration
	sweepInterval  time.Duration

	logger    logging.Logger
	sweepStop chan struct{}
	sweepDone chan struct{}
	closed    bool
}

// PoolOption customizes pool construction.
type PoolOption func(*Pool)

// WithMaxSessions overrides the session cap.
func WithMaxSessions(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.maxSessions = n
		}
	}
}

// WithSessionTimeout overrides the idle expiry.
func WithSessionTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.sessionTimeout = d
		}
	}
}

// WithSweepInterval overrides the background sweep period.
func WithSweepInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.sweepInterval = d
		}
	}
}

// NewPool creates a pool over the given engine and starts the background
// expiry sweep.
func NewPool(engine Engine, logger logging.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = logging.Discard()
	}

	p := &Pool{
		engine:         engine,
		sessions:       make(map[string]*Session),
		browsers:       make(map[string]Browser),
		maxSessions:    DefaultMaxSessions,
		sessionTimeout: DefaultSessionTimeout,
		sweepInterval:  DefaultSweepInterval,
		logger:         logger,
		sweepStop:      make(chan struct{}),
		sweepDone:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.sweepLoop()
	return p
}

// Acquire returns a session matching the options, reusing an idle one when
// possible. At capacity it first sweeps expired sessions, then evicts the
// least-recently-used one. Driver failures propagate to the caller.
func (p *Pool) Acquire(ctx context.Context, opts AcquireOptions) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.BrowserType == "" {
		opts.BrowserType = "chromium"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("session pool is shut down")
	}

	// Reuse an idle session with matching parameters.
	if s := p.findIdleLocked(opts.BrowserType, opts.Headless); s != nil {
		s.inUse = true
		s.LastUsedAt = time.Now()
		s.TestCount++
		p.logger.Info("reusing browser session", map[string]interface{}{"session_id": s.ID})
		return s, nil
	}

	if len(p.sessions) < p.maxSessions {
		return p.createLocked(opts)
	}

	// At capacity: drop expired sessions and retry.
	p.sweepExpiredLocked(time.Now())
	if len(p.sessions) < p.maxSessions {
		return p.createLocked(opts)
	}

	// Still full: evict the least-recently-used session.
	p.evictOldestLocked()
	return p.createLocked(opts)
}

// Release hands a session back to the pool. Safe to call more than once;
// repeated calls are no-ops and never adjust the test count.
func (p *Pool) Release(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok || !s.inUse {
		return
	}
	s.inUse = false
	s.LastUsedAt = time.Now()
	p.logger.Debug("released browser session", map[string]interface{}{"session_id": sessionID})
}

// Stats describes the pool's current occupancy.
type Stats struct {
	TotalSessions  int            `json:"total_sessions"`
	InUseSessions  int            `json:"in_use_sessions"`
	MaxSessions    int            `json:"max_sessions"`
	TotalTests     int            `json:"total_tests_executed"`
	BrowserTypes   map[string]int `json:"browser_types,omitempty"`
	SessionTimeout string         `json:"session_timeout"`
}

// Stats returns a snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{
		TotalSessions:  len(p.sessions),
		MaxSessions:    p.maxSessions,
		SessionTimeout: p.sessionTimeout.String(),
		BrowserTypes:   make(map[string]int),
	}
	for _, s := range p.sessions {
		if s.inUse {
			stats.InUseSessions++
		}
		stats.TotalTests += s.TestCount
		stats.BrowserTypes[s.BrowserType]++
	}
	return stats
}

// Shutdown stops the sweep and closes every session and browser. Idempotent;
// failures on individual resources are logged and do not stop the rest.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.sweepStop)
	p.mu.Unlock()

	<-p.sweepDone

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, s := range p.sessions {
		if err := s.Context.Close(); err != nil {
			p.logger.Warn("failed to close session context", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
		}
		delete(p.sessions, id)
	}

	for key, b := range p.browsers {
		if err := b.Close(); err != nil {
			p.logger.Warn("failed to close browser", map[string]interface{}{
				"browser": key,
				"error":   err.Error(),
			})
		}
		delete(p.browsers, key)
	}

	if err := p.engine.Close(); err != nil {
		p.logger.Warn("failed to close browser engine", map[string]interface{}{"error": err.Error()})
	}

	p.logger.Info("session pool shut down", nil)
}

// findIdleLocked returns an idle session matching the parameters, or nil.
func (p *Pool) findIdleLocked(browserType string, headless bool) *Session {
	for _, s := range p.sessions {
		if s.BrowserType == browserType && s.Headless == headless && !s.inUse {
			return s
		}
	}
	return nil
}

// createLocked opens a new session, lazily launching a shared browser for
// the (type, headless) pair.
func (p *Pool) createLocked(opts AcquireOptions) (*Session, error) {
	b, err := p.browserLocked(opts.BrowserType, opts.Headless)
	if err != nil {
		return nil, err
	}

	viewport := Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	if opts.Viewport != nil {
		viewport = *opts.Viewport
	}

	ctx, err := b.NewContext(ContextOptions{
		Viewport:          viewport,
		UserAgent:         opts.UserAgent,
		IgnoreHTTPSErrors: true,
		AcceptDownloads:   true,
		Extra:             opts.Extra,
	})
	if err != nil {
		return nil, err
	}

	page, err := ctx.NewPage()
	if err != nil {
		if closeErr := ctx.Close(); closeErr != nil {
			p.logger.Warn("failed to close context after page error", map[string]interface{}{"error": closeErr.Error()})
		}
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:          uuid.New().String(),
		Browser:     b,
		Context:     ctx,
		Page:        page,
		BrowserType: opts.BrowserType,
		Headless:    opts.Headless,
		CreatedAt:   now,
		LastUsedAt:  now,
		TestCount:   1,
		inUse:       true,
	}
	p.sessions[s.ID] = s

	p.logger.Info("created browser session", map[string]interface{}{
		"session_id":   s.ID,
		"browser_type": s.BrowserType,
		"headless":     s.Headless,
	})
	return s, nil
}

// browserLocked returns the shared browser for the pair, launching it on
// first use.
func (p *Pool) browserLocked(browserType string, headless bool) (Browser, error) {
	key := fmt.Sprintf("%s_%t", browserType, headless)
	if b, ok := p.browsers[key]; ok {
		return b, nil
	}

	b, err := p.engine.Launch(browserType, headless)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser %s: %w", key, err)
	}
	p.browsers[key] = b

	p.logger.Info("launched browser", map[string]interface{}{"browser": key})
	return b, nil
}

// closeSessionLocked closes a session's context and unlinks it.
func (p *Pool) closeSessionLocked(id string) {
	s, ok := p.sessions[id]
	if !ok {
		return
	}
	if err := s.Context.Close(); err != nil {
		p.logger.Warn("failed to close session", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}
	delete(p.sessions, id)
}

// sweepExpiredLocked closes sessions idle longer than the timeout. In-use
// sessions are never swept.
func (p *Pool) sweepExpiredLocked(now time.Time) {
	for id, s := range p.sessions {
		if !s.inUse && s.idleFor(now) > p.sessionTimeout {
			p.closeSessionLocked(id)
			p.logger.Info("closed expired session", map[string]interface{}{"session_id": id})
		}
	}
}

// evictOldestLocked force-closes the session with the oldest LastUsedAt,
// regardless of idle time.
func (p *Pool) evictOldestLocked() {
	var oldest *Session
	for _, s := range p.sessions {
		if oldest == nil || s.LastUsedAt.Before(oldest.LastUsedAt) {
			oldest = s
		}
	}
	if oldest != nil {
		p.logger.Warn("evicting least-recently-used session", map[string]interface{}{"session_id": oldest.ID})
		p.closeSessionLocked(oldest.ID)
	}
}

// sweepLoop periodically drops expired sessions until Shutdown.
func (p *Pool) sweepLoop() {
	defer close(p.sweepDone)

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.sweepStop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.sweepExpiredLocked(time.Now())
			p.mu.Unlock()
		}
	}
}
