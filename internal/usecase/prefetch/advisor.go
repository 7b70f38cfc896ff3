package prefetch

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"

	"github.com/benbjohnson/clock"
)

const DefaultDelay = 750 * time.Millisecond

// Sink receives prefetch signals from the timer goroutine.
type Sink func(entity.PrefetchSignal)

// Advisor emits a prefetch signal when the pointer dwells on a link.
type Advisor struct {
	delay  time.Duration
	clock  clock.Clock
	sink   Sink
	logger output.LoggerPort

	mu     sync.Mutex
	timer  *clock.Timer
	url    string
	gen    uint64
	fired  bool
	closed bool
}

func NewAdvisor(delay time.Duration, clk clock.Clock, sink Sink, logger output.LoggerPort) *Advisor {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if clk == nil {
		clk = clock.New()
	}
	if sink == nil {
		sink = func(entity.PrefetchSignal) {}
	}
	return &Advisor{
		delay:  delay,
		clock:  clk,
		sink:   sink,
		logger: logger.WithField("component", "prefetch"),
	}
}

// Resolve turns a raw href attribute into an absolute http(s) URL.
// Fragment-only links and other schemes are rejected.
func Resolve(base, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() && base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		ref = b.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" || ref.Host == "" {
		return "", false
	}
	return ref.String(), true
}

// Over starts a hover session on the link. Hovering the same link again
// while a session is open does nothing; a different link cancels the
// pending timer first.
func (a *Advisor) Over(base, href string) {
	target, ok := Resolve(base, href)
	if !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if a.url == target && (a.timer != nil || a.fired) {
		return
	}
	a.stopLocked()

	a.gen++
	gen := a.gen
	a.url = target
	a.fired = false
	a.timer = a.clock.AfterFunc(a.delay, func() { a.fire(gen) })
}

// Out ends the hover session and cancels a pending timer.
func (a *Advisor) Out() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.url = ""
	a.fired = false
}

// Pending reports whether a dwell timer is running.
func (a *Advisor) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Close cancels pending timers; later hovers are ignored.
func (a *Advisor) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.closed = true
}

func (a *Advisor) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}

func (a *Advisor) fire(gen uint64) {
	a.mu.Lock()
	if a.closed || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.fired = true
	sig := entity.PrefetchSignal{URL: a.url, At: a.clock.Now()}
	a.mu.Unlock()

	a.logger.Debug("prefetch dwell reached", "url", sig.URL)
	a.sink(sig)
}
