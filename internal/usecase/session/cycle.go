package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/adaptation"
)

// Lines the backend reads from the interaction log.
var struggleLog = map[entity.StruggleKind]string{
	entity.StruggleRepetitiveClicks: "rage clicks detected",
	entity.StruggleScrollLoop:       "repeated scrolling loops",
}

const helpLog = "User initiated proactive help"

// attach snapshots the page and binds the engines to it.
func (s *Session) attach(ctx context.Context) error {
	doc, err := s.page.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	s.engine.Attach(doc)
	return nil
}

func (s *Session) ensureDoc(ctx context.Context) error {
	if s.engine.Document() != nil {
		return nil
	}
	return s.attach(ctx)
}

func (s *Session) sync(ctx context.Context) error {
	doc := s.engine.Document()
	if doc == nil {
		return nil
	}
	return s.page.Sync(ctx, doc)
}

// refresh takes a fresh snapshot and scrapes it. Pending flashes are
// settled first so the new snapshot does not carry them.
func (s *Session) refresh(ctx context.Context) (entity.PageModel, error) {
	if len(s.flashes) > 0 {
		s.settleFlashes()
		if err := s.sync(ctx); err != nil {
			s.logger.Warn("flash undo not synced", "error", err)
		}
	}
	if err := s.attach(ctx); err != nil {
		return entity.PageModel{}, err
	}
	model := s.scraper.Scrape(s.engine.Document())
	if err := s.sync(ctx); err != nil {
		return model, fmt.Errorf("sync ids: %w", err)
	}
	return model, nil
}

// cycle scrapes the page and asks the backend what to do. The request runs
// off the loop; its decision is posted back.
func (s *Session) cycle(ctx context.Context, explicit bool) error {
	if s.inflight {
		return ErrBusy
	}
	model, err := s.refresh(ctx)
	if err != nil {
		return err
	}

	logs := s.logs
	s.logs = nil
	req := entity.ProcessRequest{
		DOMData:    model,
		Profile:    s.profile,
		Logs:       logs,
		IsExplicit: explicit,
	}

	s.inflight = true
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		d, err := s.backend.Process(ctx, req)
		s.post(func(ctx context.Context) {
			s.inflight = false
			s.onDecision(ctx, d, err)
		})
	}()
	s.logger.Debug("backend request sent", "elements", len(model.Elements), "explicit", explicit, "logs", len(logs))
	return nil
}

func (s *Session) onDecision(ctx context.Context, d entity.Decision, err error) {
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("backend request failed", "error", err)
			s.notifier.ShowError(ctx, err)
		}
		return
	}
	s.notifier.ShowDecision(ctx, d)

	switch d.Action {
	case entity.ActionAdapt, entity.ActionApplyUI:
		cmd, ok := d.Command()
		if !ok {
			s.logger.Warn("decision without ui changes", "action", d.Action)
			return
		}
		if _, err := s.apply(ctx, cmd); err != nil {
			s.logger.Warn("adaptation incomplete", "error", err)
		}
	case entity.ActionCallUITool:
		if err := s.callTool(ctx, d.Tool, d.Params); err != nil {
			s.logger.Warn("ui tool failed", "tool", d.Tool, "error", err)
		}
	default:
		s.logger.Debug("no adaptation needed", "message", d.Message)
	}
}

func (s *Session) apply(ctx context.Context, cmd entity.AdaptationCommand) (adaptation.Report, error) {
	if err := s.ensureDoc(ctx); err != nil {
		return adaptation.Report{}, err
	}
	s.dropFlashes()
	rep, err := s.engine.Apply(ctx, cmd)
	return rep, errors.Join(err, s.sync(ctx))
}

func (s *Session) reset(ctx context.Context, opts entity.ResetOptions) error {
	if err := s.ensureDoc(ctx); err != nil {
		return err
	}
	s.dropFlashes()
	err := s.engine.Reset(ctx, opts)
	return errors.Join(err, s.sync(ctx))
}

func (s *Session) setTheme(ctx context.Context, t entity.Theme) error {
	if err := s.ensureDoc(ctx); err != nil {
		return err
	}
	err := s.themes.Apply(ctx, t)
	return errors.Join(err, s.sync(ctx))
}

func (s *Session) setFontScale(ctx context.Context, scale float64) error {
	if err := s.ensureDoc(ctx); err != nil {
		return err
	}
	if err := s.engine.SetFontScale(scale); err != nil {
		return err
	}
	return s.sync(ctx)
}

// callTool runs a backend call_ui_tool action.
func (s *Session) callTool(ctx context.Context, tool string, params json.RawMessage) error {
	name, ok := entity.UIToolCommand[tool]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrUnknownCommand, tool)
	}
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	switch name {
	case entity.CommandSetTheme:
		var p struct {
			Theme string `json:"theme"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
		t, err := entity.ParseTheme(p.Theme)
		if err != nil {
			return err
		}
		return s.setTheme(ctx, t)
	case entity.CommandIncreaseFontSize:
		var p struct {
			Scale float64 `json:"scale"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
		return s.setFontScale(ctx, p.Scale)
	}
	return fmt.Errorf("%w: %s", entity.ErrUnknownCommand, tool)
}

// highlight flashes selector, scrolls to it and schedules the undo.
func (s *Session) highlight(ctx context.Context, selector string) error {
	if err := s.ensureDoc(ctx); err != nil {
		return err
	}
	undo, err := s.engine.Flash(selector)
	if err != nil {
		return err
	}
	if err := s.sync(ctx); err != nil {
		return err
	}
	if err := s.page.ScrollIntoView(ctx, selector); err != nil {
		s.logger.Warn("scroll into view failed", "selector", selector, "error", err)
	}

	f := &flash{undo: undo}
	f.timer = s.clock.AfterFunc(s.cfg.FlashDuration, func() {
		s.post(func(ctx context.Context) {
			if !s.takeFlash(f) {
				return
			}
			f.undo()
			if err := s.sync(ctx); err != nil {
				s.logger.Warn("flash undo not synced", "error", err)
			}
		})
	})
	s.flashes = append(s.flashes, f)
	return nil
}

// takeFlash removes f from the pending list; false means it was already
// settled or dropped.
func (s *Session) takeFlash(f *flash) bool {
	for i, p := range s.flashes {
		if p == f {
			s.flashes = append(s.flashes[:i], s.flashes[i+1:]...)
			return true
		}
	}
	return false
}

// settleFlashes undoes pending flashes right away.
func (s *Session) settleFlashes() {
	for _, f := range s.flashes {
		f.timer.Stop()
		f.undo()
	}
	s.flashes = nil
}

// dropFlashes cancels pending undos; used when the markers go away anyway.
func (s *Session) dropFlashes() {
	for _, f := range s.flashes {
		f.timer.Stop()
	}
	s.flashes = nil
}
