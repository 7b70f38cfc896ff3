package session

import (
	"context"
	"errors"

	"aura-runtime/internal/domain/entity"
)

func (s *Session) handleEvent(ctx context.Context, ev entity.PageEvent) {
	switch ev.Kind {
	case entity.EventClick:
		s.detector.Click(ev.Chain)
	case entity.EventScroll:
		s.detector.Scroll(ev.Y)
	case entity.EventMouseOver:
		s.advisor.Over(ev.Base, ev.Href)
	case entity.EventMouseOut:
		s.advisor.Out()
	case entity.EventNavigated:
		s.onNavigated(ctx)
	}

	signals := s.signals
	s.signals = nil
	for _, sig := range signals {
		s.onStruggle(ctx, sig)
	}
}

// onNavigated rebinds the engines to the new document. Markers and timers
// of the old document are gone with it.
func (s *Session) onNavigated(ctx context.Context) {
	s.advisor.Out()
	s.detector.Reset()
	s.dropFlashes()

	if err := s.attach(ctx); err != nil {
		s.logger.Warn("reattach after navigation failed", "error", err)
		return
	}
	if err := s.themes.Load(ctx); err != nil {
		s.logger.Warn("stored theme not applied", "error", err)
	}
	if err := s.sync(ctx); err != nil {
		s.logger.Warn("sync after navigation failed", "error", err)
	}
	s.logger.Info("page changed", "url", s.page.URL())
}

func (s *Session) onStruggle(ctx context.Context, sig entity.StruggleSignal) {
	s.stats.Record(sig.Kind)
	if line, ok := struggleLog[sig.Kind]; ok {
		s.logs = append(s.logs, line)
	}
	s.logger.Info("struggle detected", "kind", sig.Kind,
		"rage_clicks", s.stats.RageClicks, "scroll_loops", s.stats.ScrollLoops)

	if s.cfg.AutoAdapt {
		s.startCycle(ctx)
		return
	}

	// the notifier may wait for a person; keep the loop free meanwhile
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if !s.notifier.OfferHelp(ctx, sig) {
			return
		}
		s.post(s.startCycle)
	}()
}

func (s *Session) startCycle(ctx context.Context) {
	err := s.cycle(ctx, false)
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		s.logger.Debug("cycle skipped", "reason", err)
	default:
		s.logger.Error("cycle failed", "error", err)
	}
}

func (s *Session) prefetch(ctx context.Context, sig entity.PrefetchSignal) {
	// the request must not hold the loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.backend.Prefetch(ctx, sig.URL)
		switch {
		case err == nil:
			s.logger.Debug("prefetch requested", "url", sig.URL)
		case errors.Is(err, entity.ErrRateLimited):
			s.logger.Debug("prefetch dropped", "url", sig.URL)
		case ctx.Err() == nil:
			s.logger.Warn("prefetch failed", "url", sig.URL, "error", err)
		}
	}()
}
