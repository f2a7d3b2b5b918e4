package browser

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeEngine is an in-memory driver for pool and runner tests.
type fakeEngine struct {
	mu         sync.Mutex
	launches   []string
	launchErr  error
	closed     bool
	browsers   []*fakeBrowser
	contextErr error
}

func newFakeEngine() *fakeEngine { return &fakeEngine{} }

func (e *fakeEngine) Launch(browserType string, headless bool) (Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.launchErr != nil {
		return nil, e.launchErr
	}
	e.launches = append(e.launches, fmt.Sprintf("%s_%t", browserType, headless))
	b := &fakeBrowser{engine: e}
	e.browsers = append(e.browsers, b)
	return b, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) launchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.launches)
}

type fakeBrowser struct {
	mu       sync.Mutex
	engine   *fakeEngine
	contexts []*fakeContext
	closed   bool
}

func (b *fakeBrowser) NewContext(opts ContextOptions) (Context, error) {
	b.engine.mu.Lock()
	contextErr := b.engine.contextErr
	b.engine.mu.Unlock()
	if contextErr != nil {
		return nil, contextErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c := &fakeContext{opts: opts}
	b.contexts = append(b.contexts, c)
	return c, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type fakeContext struct {
	mu     sync.Mutex
	opts   ContextOptions
	closed bool
	pages  []*fakePage
}

func (c *fakeContext) NewPage() (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &fakePage{}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *fakeContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeContext) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakePage records operations and can be programmed to fail.
type fakePage struct {
	mu          sync.Mutex
	gotoErr     error
	visited     []string
	screenshots int
	closed      bool
}

// fakePNG is a minimal PNG header so screenshot artifacts look like images.
var fakePNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func (p *fakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.visited = append(p.visited, url)
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) Screenshot(fullPage bool) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshots++
	return fakePNG, nil
}

func (p *fakePage) Content() (string, error) { return "<html></html>", nil }
func (p *fakePage) Title() (string, error)   { return "Fake Page", nil }
func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.visited) == 0 {
		return "about:blank"
	}
	return p.visited[len(p.visited)-1]
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
