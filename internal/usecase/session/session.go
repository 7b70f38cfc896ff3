package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/adaptation"
	"aura-runtime/internal/usecase/prefetch"
	"aura-runtime/internal/usecase/scraper"
	"aura-runtime/internal/usecase/struggle"
	"aura-runtime/internal/usecase/theme"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

const (
	defaultFlashDuration = 3 * time.Second
	defaultTaskBuffer    = 32
)

var (
	ErrStopped = errors.New("session is not running")
	ErrRunning = errors.New("session is already running")
	ErrBusy    = errors.New("backend request already in flight")
)

type Config struct {
	// AutoAdapt runs a cycle on every struggle signal without asking.
	AutoAdapt     bool
	FlashDuration time.Duration
	PrefetchDelay time.Duration
	Struggle      struggle.Config
	TaskBuffer    int
}

func DefaultConfig() Config {
	return Config{
		FlashDuration: defaultFlashDuration,
		PrefetchDelay: prefetch.DefaultDelay,
		Struggle:      struggle.DefaultConfig(),
		TaskBuffer:    defaultTaskBuffer,
	}
}

type Deps struct {
	Page     output.PagePort
	Backend  output.BackendPort
	Store    output.StoragePort
	Notifier output.NotifierPort
	Engine   *adaptation.Engine
	Themes   *theme.Engine
	Scraper  *scraper.Scraper
	Clock    clock.Clock
	Logger   output.LoggerPort
}

type task func(ctx context.Context)

// Session drives one page. Every DOM operation runs on the goroutine that
// called Run; page events, timers, backend replies and commands are posted
// into it.
type Session struct {
	id       string
	cfg      Config
	page     output.PagePort
	backend  output.BackendPort
	store    output.StoragePort
	notifier output.NotifierPort
	engine   *adaptation.Engine
	themes   *theme.Engine
	scraper  *scraper.Scraper
	detector *struggle.Detector
	advisor  *prefetch.Advisor
	clock    clock.Clock
	logger   output.LoggerPort

	tasks   chan task
	done    chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup

	// loop state
	profile  entity.UserProfile
	stats    entity.InteractionStats
	logs     []string
	signals  []entity.StruggleSignal
	flashes  []*flash
	inflight bool
}

type flash struct {
	timer *clock.Timer
	undo  func()
}

func New(cfg Config, deps Deps) *Session {
	if cfg.FlashDuration <= 0 {
		cfg.FlashDuration = defaultFlashDuration
	}
	if cfg.TaskBuffer <= 0 {
		cfg.TaskBuffer = defaultTaskBuffer
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	id := uuid.NewString()
	s := &Session{
		id:       id,
		cfg:      cfg,
		page:     deps.Page,
		backend:  deps.Backend,
		store:    deps.Store,
		notifier: deps.Notifier,
		engine:   deps.Engine,
		themes:   deps.Themes,
		scraper:  deps.Scraper,
		clock:    clk,
		logger:   deps.Logger.WithFields(map[string]any{"component": "session", "session_id": id}),
		tasks:    make(chan task, cfg.TaskBuffer),
		done:     make(chan struct{}),
	}
	// Detector callbacks happen on the loop; they are queued and handled
	// after the event that caused them.
	s.detector = struggle.NewDetector(cfg.Struggle, clk, func(sig entity.StruggleSignal) {
		s.signals = append(s.signals, sig)
	}, deps.Logger)
	s.advisor = prefetch.NewAdvisor(cfg.PrefetchDelay, clk, func(sig entity.PrefetchSignal) {
		s.post(func(ctx context.Context) { s.prefetch(ctx, sig) })
	}, deps.Logger)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Run starts the loop and blocks until ctx is cancelled. The page is
// snapshotted, styles installed and the stored theme re-applied first.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer func() {
		s.shutdown()
		close(s.done)
		s.wg.Wait()
	}()

	if err := s.start(ctx); err != nil {
		return err
	}
	s.logger.Info("session started", "url", s.page.URL(), "profile", s.profile.AuraID)

	events := s.page.Events()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleEvent(ctx, ev)
		case t := <-s.tasks:
			t(ctx)
		}
	}
}

func (s *Session) start(ctx context.Context) error {
	profile, err := LoadProfile(ctx, s.store)
	if err != nil {
		s.logger.Warn("profile unavailable, using guest", "error", err)
		if profile.AuraID == "" {
			profile = entity.NewGuestProfile()
		}
	}
	s.profile = profile

	if err := s.attach(ctx); err != nil {
		return err
	}
	if err := s.themes.Load(ctx); err != nil {
		s.logger.Warn("stored theme not applied", "error", err)
	}
	return s.sync(ctx)
}

func (s *Session) shutdown() {
	s.advisor.Close()
	s.dropFlashes()
}

// post queues t for the loop. It reports false once the loop has exited.
func (s *Session) post(t task) bool {
	select {
	case s.tasks <- t:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context) error) error {
	errc := make(chan error, 1)
	if !s.post(func(loopCtx context.Context) { errc <- fn(loopCtx) }) {
		return ErrStopped
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrStopped
		}
	}
}
