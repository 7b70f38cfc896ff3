package struggle

import (
	"sync"
	"time"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"

	"github.com/benbjohnson/clock"
)

type Config struct {
	RageClickThreshold int
	RageClickWindow    time.Duration

	// ScrollSwing is the distance in px the page has to travel back from the
	// furthest point of a run before the reversal counts.
	ScrollSwing     float64
	ScrollReversals int
	ScrollWindow    time.Duration
}

func DefaultConfig() Config {
	return Config{
		RageClickThreshold: 3,
		RageClickWindow:    2 * time.Second,
		ScrollSwing:        150,
		ScrollReversals:    3,
		ScrollWindow:       4 * time.Second,
	}
}

// SignalSink receives struggle signals. It is called outside the detector lock.
type SignalSink func(entity.StruggleSignal)

// Detector turns raw click and scroll events into struggle signals.
type Detector struct {
	cfg    Config
	clock  clock.Clock
	sink   SignalSink
	logger output.LoggerPort

	mu        sync.Mutex
	clicks    int
	lastClick time.Time

	scrolling bool
	dir       int
	peak      float64
	reversals []time.Time
}

func NewDetector(cfg Config, clk clock.Clock, sink SignalSink, logger output.LoggerPort) *Detector {
	def := DefaultConfig()
	if cfg.RageClickThreshold <= 0 {
		cfg.RageClickThreshold = def.RageClickThreshold
	}
	if cfg.RageClickWindow <= 0 {
		cfg.RageClickWindow = def.RageClickWindow
	}
	if cfg.ScrollSwing <= 0 {
		cfg.ScrollSwing = def.ScrollSwing
	}
	if cfg.ScrollReversals <= 0 {
		cfg.ScrollReversals = def.ScrollReversals
	}
	if cfg.ScrollWindow <= 0 {
		cfg.ScrollWindow = def.ScrollWindow
	}
	if clk == nil {
		clk = clock.New()
	}
	if sink == nil {
		sink = func(entity.StruggleSignal) {}
	}
	return &Detector{
		cfg:    cfg,
		clock:  clk,
		sink:   sink,
		logger: logger.WithField("component", "struggle"),
	}
}

// Click processes a click whose target is described by chain (target first).
func (d *Detector) Click(chain []entity.NodeInfo) {
	now := d.clock.Now()
	onControl := IsInteractive(chain)

	d.mu.Lock()
	var fire bool
	switch {
	case onControl:
		d.clicks = 0
	case d.clicks > 0 && now.Sub(d.lastClick) > d.cfg.RageClickWindow:
		d.clicks = 1
		d.lastClick = now
	default:
		d.clicks++
		d.lastClick = now
	}
	if d.clicks >= d.cfg.RageClickThreshold {
		d.clicks = 0
		fire = true
	}
	d.mu.Unlock()

	if fire {
		d.logger.Info("rage click detected", "threshold", d.cfg.RageClickThreshold)
		d.sink(entity.StruggleSignal{Kind: entity.StruggleRepetitiveClicks, At: now})
	}
}

// Scroll processes one vertical scroll position sample.
func (d *Detector) Scroll(y float64) {
	now := d.clock.Now()

	d.mu.Lock()
	fire := d.scrollLocked(y, now)
	d.mu.Unlock()

	if fire {
		d.logger.Info("scroll loop detected", "reversals", d.cfg.ScrollReversals)
		d.sink(entity.StruggleSignal{Kind: entity.StruggleScrollLoop, At: now})
	}
}

func (d *Detector) scrollLocked(y float64, now time.Time) bool {
	if !d.scrolling {
		d.scrolling = true
		d.dir = 0
		d.peak = y
		return false
	}

	switch {
	case d.dir == 0:
		if y != d.peak {
			d.dir = sign(y - d.peak)
			d.peak = y
		}
		return false
	case d.dir > 0 && y >= d.peak, d.dir < 0 && y <= d.peak:
		d.peak = y
		return false
	}

	if abs(y-d.peak) < d.cfg.ScrollSwing {
		return false
	}

	// разворот
	d.dir = -d.dir
	d.peak = y
	d.reversals = append(d.reversals, now)

	cut := 0
	for cut < len(d.reversals) && now.Sub(d.reversals[cut]) > d.cfg.ScrollWindow {
		cut++
	}
	d.reversals = d.reversals[cut:]

	if len(d.reversals) >= d.cfg.ScrollReversals {
		d.reversals = nil
		return true
	}
	return false
}

// Reset drops all accumulated click and scroll history.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = 0
	d.lastClick = time.Time{}
	d.scrolling = false
	d.dir = 0
	d.reversals = nil
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
