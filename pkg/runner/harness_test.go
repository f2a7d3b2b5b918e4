package runner

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/verity/pkg/agent"
	"github.com/entrhq/verity/pkg/browser"
)

// In-memory driver fakes so runner tests exercise the real pool without a
// browser binary.

type stubEngine struct {
	mu        sync.Mutex
	launchErr error
	launches  int
	pages     []*stubPage

	// pageHook programs each page as the pool creates it.
	pageHook func(*stubPage)
}

func (e *stubEngine) Launch(browserType string, headless bool) (browser.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	e.launches++
	return &stubBrowser{engine: e}, nil
}

func (e *stubEngine) Close() error { return nil }

func (e *stubEngine) newPage() *stubPage {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := &stubPage{}
	if e.pageHook != nil {
		e.pageHook(p)
	}
	e.pages = append(e.pages, p)
	return p
}

type stubBrowser struct {
	engine *stubEngine
}

func (b *stubBrowser) NewContext(opts browser.ContextOptions) (browser.Context, error) {
	return &stubContext{engine: b.engine}, nil
}

func (b *stubBrowser) Close() error { return nil }

type stubContext struct {
	engine *stubEngine
}

func (c *stubContext) NewPage() (browser.Page, error) { return c.engine.newPage(), nil }
func (c *stubContext) Close() error                   { return nil }

// stubPage records navigations and can fail the first N of them.
type stubPage struct {
	mu           sync.Mutex
	visited      []string
	gotoTimeouts []time.Duration
	gotoErrs     []error
	shotErr      error
	shots        int
}

func (p *stubPage) Goto(_ context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoTimeouts = append(p.gotoTimeouts, timeout)
	if len(p.gotoErrs) > 0 {
		err := p.gotoErrs[0]
		p.gotoErrs = p.gotoErrs[1:]
		if err != nil {
			return err
		}
	}
	p.visited = append(p.visited, url)
	return nil
}

func (p *stubPage) Click(_ context.Context, _ string, _ time.Duration) error          { return nil }
func (p *stubPage) Fill(_ context.Context, _, _ string, _ time.Duration) error        { return nil }
func (p *stubPage) WaitForSelector(_ context.Context, _ string, _ time.Duration) error { return nil }

func (p *stubPage) Screenshot(_ bool) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shotErr != nil {
		return nil, p.shotErr
	}
	p.shots++
	return []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, nil
}

func (p *stubPage) Content() (string, error) { return "<html></html>", nil }
func (p *stubPage) Title() (string, error)   { return "Stub", nil }
func (p *stubPage) URL() string              { return "about:blank" }
func (p *stubPage) Close() error             { return nil }

// stubAgent resolves each run through a per-task handler and records the
// order tasks were observed in.
type stubAgent struct {
	mu    sync.Mutex
	order []string
	run   func(task string) (*agent.Result, error)
}

func (a *stubAgent) Run(ctx context.Context, task string, _ browser.Page, _ int) (*agent.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.order = append(a.order, task)
	a.mu.Unlock()

	if a.run != nil {
		return a.run(task)
	}
	return &agent.Result{}, nil
}

func (a *stubAgent) tasks() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.order...)
}
