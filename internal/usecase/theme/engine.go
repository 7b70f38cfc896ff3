package theme

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"golang.org/x/net/html"
)

// Engine keeps at most one theme stylesheet in the document.
type Engine struct {
	store  output.StoragePort
	logger output.LoggerPort

	mu      sync.Mutex
	doc     *dom.Document
	current entity.Theme
}

func NewEngine(store output.StoragePort, logger output.LoggerPort) *Engine {
	return &Engine{store: store, logger: logger.WithField("component", "theme")}
}

// Attach binds the engine to a document snapshot and adopts any theme
// stylesheet already present in it. Extra theme stylesheets are removed.
func (e *Engine) Attach(doc *dom.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc = doc
	e.current = entity.ThemeNone

	var found []*html.Node
	dom.WalkElements(doc.Root(), func(n *html.Node) bool {
		if n.Data == "style" && strings.HasPrefix(dom.AttrValue(n, "id"), entity.ThemeStylePrefix) {
			found = append(found, n)
		}
		return true
	})
	for i, n := range found {
		name := strings.TrimPrefix(dom.AttrValue(n, "id"), entity.ThemeStylePrefix)
		t, err := entity.ParseTheme(name)
		if i == 0 && err == nil && t != entity.ThemeNone {
			e.current = t
			continue
		}
		doc.Remove(n)
	}
}

func (e *Engine) Current() entity.Theme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Apply switches to t and persists the choice. Applying the current theme
// is a no-op.
func (e *Engine) Apply(ctx context.Context, t entity.Theme) error {
	changed, err := e.apply(t)
	if err != nil || !changed {
		return err
	}
	return e.persist(ctx, t)
}

// Remove drops the theme stylesheet without touching the stored choice.
func (e *Engine) Remove() error {
	_, err := e.apply(entity.ThemeNone)
	return err
}

// Load re-applies the persisted theme, if any.
func (e *Engine) Load(ctx context.Context) error {
	raw, ok, err := e.store.Get(ctx, entity.KeyTheme)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}
	if !ok {
		return nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		e.logger.Warn("stored theme unreadable", "error", err)
		return nil
	}
	t, err := entity.ParseTheme(name)
	if err != nil {
		e.logger.Warn("stored theme unknown", "theme", name)
		return nil
	}
	_, err = e.apply(t)
	return err
}

func (e *Engine) apply(t entity.Theme) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return false, entity.ErrNoDocument
	}
	if e.current == t {
		return false, nil
	}

	e.doc.RemoveByID(entity.ThemeStyleID(e.current))
	prev := e.current
	e.current = t
	if t != entity.ThemeNone {
		e.doc.UpsertStyle(entity.ThemeStyleID(t), Stylesheet(t))
	}
	e.logger.Info("theme changed", "from", prev.String(), "to", t.String())
	return true, nil
}

func (e *Engine) persist(ctx context.Context, t entity.Theme) error {
	raw, err := json.Marshal(t.String())
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, entity.KeyTheme, raw); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	return nil
}
