package session

import (
	"context"

	"aura-runtime/internal/adapter/command"
	"aura-runtime/internal/application/port/input"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/adaptation"
)

var (
	_ command.Runtime     = (*Session)(nil)
	_ input.SessionRunner = (*Session)(nil)
)

// Model returns a fresh PageModel of the live page.
func (s *Session) Model(ctx context.Context) (entity.PageModel, error) {
	var model entity.PageModel
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		model, err = s.refresh(ctx)
		return err
	})
	return model, err
}

func (s *Session) Adapt(ctx context.Context, cmd entity.AdaptationCommand) (adaptation.Report, error) {
	var rep adaptation.Report
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		rep, err = s.apply(ctx, cmd)
		return err
	})
	return rep, err
}

func (s *Session) Reset(ctx context.Context, opts entity.ResetOptions) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.reset(ctx, opts)
	})
}

func (s *Session) Highlight(ctx context.Context, selector string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.highlight(ctx, selector)
	})
}

func (s *Session) SetTheme(ctx context.Context, t entity.Theme) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.setTheme(ctx, t)
	})
}

func (s *Session) SetFontScale(ctx context.Context, scale float64) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.setFontScale(ctx, scale)
	})
}

func (s *Session) Annotate(ctx context.Context, selector, text string) error {
	return s.do(ctx, func(ctx context.Context) error {
		if err := s.ensureDoc(ctx); err != nil {
			return err
		}
		if err := s.engine.Annotate(selector, text); err != nil {
			return err
		}
		return s.sync(ctx)
	})
}

// RequestHelp runs an explicit cycle, as when the user asks for help.
func (s *Session) RequestHelp(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		s.logs = append(s.logs, helpLog)
		return s.cycle(ctx, true)
	})
}

func (s *Session) Stats(ctx context.Context) (entity.InteractionStats, error) {
	var stats entity.InteractionStats
	err := s.do(ctx, func(ctx context.Context) error {
		stats = s.stats
		return nil
	})
	return stats, err
}
