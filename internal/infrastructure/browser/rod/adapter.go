package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.PagePort = (*PageAdapter)(nil)

const (
	defaultTimeout     = 10 * time.Second
	defaultEventBuffer = 256
)

var (
	ErrClosed     = errors.New("page adapter is closed")
	ErrInvalidURL = errors.New("invalid url")
)

type PageAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	logger   output.LoggerPort

	events     chan entity.PageEvent
	stopExpose func() error

	mu      sync.Mutex
	nextRef int
	closed  bool
}

type Config struct {
	Headless    bool
	Timeout     time.Duration
	NoSandbox   bool
	DevTools    bool
	Viewport    entity.Viewport
	EventBuffer int
	Logger      output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		Headless:    true,
		Timeout:     defaultTimeout,
		NoSandbox:   true,
		DevTools:    false,
		Viewport:    entity.Viewport{Width: 1280, Height: 720},
		EventBuffer: defaultEventBuffer,
	}
}

func NewPageAdapter(ctx context.Context, cfg Config) (*PageAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	a := &PageAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger.WithField("component", "page"),
		events:   make(chan entity.PageEvent, cfg.EventBuffer),
	}

	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.Viewport.Width,
			Height:            cfg.Viewport.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	if err := a.installBridge(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *PageAdapter) Navigate(ctx context.Context, rawURL string) error {
	if a.isClosed() {
		return ErrClosed
	}
	if err := validateURL(rawURL); err != nil {
		return err
	}
	p := a.page.Context(ctx)
	if err := p.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.Timeout(a.timeout).WaitLoad(); err != nil {
		return fmt.Errorf("page did not load: %w", err)
	}
	_ = p.WaitIdle(5 * time.Second)
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	case "about":
		if u.Opaque == "blank" {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
}

// ScrollIntoView centers the first element matching selector.
func (a *PageAdapter) ScrollIntoView(ctx context.Context, selector string) error {
	res, err := a.Eval(ctx, scrollIntoViewJS, selector)
	if err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if res != "true" {
		return fmt.Errorf("%w: %s", entity.ErrElementNotFound, selector)
	}
	return nil
}

// Eval runs a JS function in the page and returns its result as a string.
func (a *PageAdapter) Eval(ctx context.Context, js string, args ...any) (string, error) {
	if a.isClosed() {
		return "", ErrClosed
	}
	res, err := a.page.Context(ctx).Timeout(a.timeout).Eval(js, args...)
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	return res.Value.Str(), nil
}

func (a *PageAdapter) Events() <-chan entity.PageEvent {
	return a.events
}

func (a *PageAdapter) URL() string {
	info, err := a.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (a *PageAdapter) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *PageAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	if a.stopExpose != nil {
		_ = a.stopExpose()
	}
	if a.browser != nil {
		_ = a.browser.Close()
	}
	if a.launcher != nil {
		a.launcher.Kill()
		a.launcher.Cleanup()
	}
	return nil
}

const scrollIntoViewJS = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) return false;
	el.scrollIntoView({behavior: "smooth", block: "center"});
	return true;
}`
