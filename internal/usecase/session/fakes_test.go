package session

import (
	"context"
	"sync"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"
)

// fakePage keeps the "live" page as HTML: Snapshot parses it, Sync renders
// the synced document back into it.
type fakePage struct {
	mu       sync.Mutex
	url      string
	html     string
	scrolled []string
	syncs    int
	events   chan entity.PageEvent
}

func newFakePage(src string) *fakePage {
	return &fakePage{
		url:    "https://example.com/",
		html:   src,
		events: make(chan entity.PageEvent),
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	return nil
}

func (p *fakePage) Snapshot(ctx context.Context) (*dom.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return dom.ParseString(p.html, p.url)
}

func (p *fakePage) Sync(ctx context.Context, doc *dom.Document) error {
	doc.Drain()
	out := doc.HTML()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = out
	p.syncs++
	return nil
}

func (p *fakePage) ScrollIntoView(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolled = append(p.scrolled, selector)
	return nil
}

func (p *fakePage) Events() <-chan entity.PageEvent { return p.events }

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Close() error { return nil }

func (p *fakePage) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html
}

// load replaces the page content, as a navigation would.
func (p *fakePage) load(url, src string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.html = src
}

func (p *fakePage) Scrolled() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scrolled...)
}

type fakeBackend struct {
	mu         sync.Mutex
	decision   entity.Decision
	err        error
	release    chan struct{}
	prefetched []string

	requests chan entity.ProcessRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		decision: entity.Decision{Action: entity.ActionNone},
		requests: make(chan entity.ProcessRequest, 8),
	}
}

func (b *fakeBackend) respond(d entity.Decision, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decision, b.err = d, err
}

func (b *fakeBackend) Process(ctx context.Context, req entity.ProcessRequest) (entity.Decision, error) {
	b.mu.Lock()
	d, err, release := b.decision, b.err, b.release
	b.mu.Unlock()

	b.requests <- req
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return entity.Decision{}, ctx.Err()
		}
	}
	return d, err
}

func (b *fakeBackend) Prefetch(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prefetched = append(b.prefetched, url)
	return nil
}

func (b *fakeBackend) Prefetched() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prefetched...)
}

type fakeNotifier struct {
	accept    bool
	offered   chan entity.StruggleSignal
	decisions chan entity.Decision
	errs      chan error
}

func newFakeNotifier(accept bool) *fakeNotifier {
	return &fakeNotifier{
		accept:    accept,
		offered:   make(chan entity.StruggleSignal, 8),
		decisions: make(chan entity.Decision, 8),
		errs:      make(chan error, 8),
	}
}

func (n *fakeNotifier) OfferHelp(ctx context.Context, sig entity.StruggleSignal) bool {
	n.offered <- sig
	return n.accept
}

func (n *fakeNotifier) ShowDecision(ctx context.Context, d entity.Decision) {
	n.decisions <- d
}

func (n *fakeNotifier) ShowError(ctx context.Context, err error) {
	n.errs <- err
}
