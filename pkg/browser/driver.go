// Package browser manages pooled browser sessions for test execution.
//
// The pool speaks to browsers through the small driver interfaces below so
// the scheduling and lifecycle logic stays testable without a real browser.
// The production driver wraps Playwright.
package browser

import (
	"context"
	"time"
)

// Viewport is the browser window size in pixels.
type Viewport struct {
	Width  int
	Height int
}

// ContextOptions configures a new browser context.
type ContextOptions struct {
	Viewport          Viewport
	UserAgent         string
	IgnoreHTTPSErrors bool
	AcceptDownloads   bool

	// Extra carries driver-specific options passed through untouched.
	Extra map[string]interface{}
}

// Engine launches browser processes. One engine is shared per pool.
type Engine interface {
	// Launch starts a browser of the given type. Supported types are
	// chromium, firefox, and webkit.
	Launch(browserType string, headless bool) (Browser, error)

	// Close releases the engine and any driver-level resources.
	Close() error
}

// Browser is a running browser process hosting isolated contexts.
type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// Context is an isolated browser context (cookies, storage, pages).
type Context interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a single tab inside a context.
type Page interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Screenshot(fullPage bool) ([]byte, error)
	Content() (string, error)
	Title() (string, error)
	URL() string
	Close() error
}
