package browser

import "time"

// Session is a live browser resource owned by the pool. A runner borrows a
// session through Acquire and must hand it back through Release; the pool
// alone closes the underlying context.
type Session struct {
	ID          string
	Browser     Browser
	Context     Context
	Page        Page
	BrowserType string
	Headless    bool
	CreatedAt   time.Time

	// Mutable fields below are guarded by the pool mutex.
	LastUsedAt time.Time
	TestCount  int

	// inUse marks a session currently borrowed by a runner. Reuse only
	// considers sessions that are not in use.
	inUse bool
}

// idleFor reports how long the session has been unused as of now.
func (s *Session) idleFor(now time.Time) time.Duration {
	return now.Sub(s.LastUsedAt)
}
