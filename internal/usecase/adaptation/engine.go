package adaptation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/bionic"
	"aura-runtime/internal/usecase/theme"

	"github.com/aymerick/douceur/css"
	"golang.org/x/net/html"
)

const maxFontScale = 4

// Report describes what a single Apply actually changed.
type Report struct {
	Hidden      int      `json:"hidden"`
	Highlighted int      `json:"highlighted"`
	Dimmed      int      `json:"dimmed"`
	Bionic      int      `json:"bionic_blocks"`
	Layout      string   `json:"layout"`
	Theme       string   `json:"theme,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
}

// Engine applies AdaptationCommands to the attached document and undoes
// them exactly. States: clean (empty index) and adapted.
type Engine struct {
	themes *theme.Engine
	bionic *bionic.Transformer
	logger output.LoggerPort

	mu  sync.Mutex
	doc *dom.Document
	idx markerIndex
}

func NewEngine(themes *theme.Engine, tr *bionic.Transformer, logger output.LoggerPort) *Engine {
	return &Engine{
		themes: themes,
		bionic: tr,
		logger: logger.WithField("component", "adaptation"),
	}
}

// Attach binds the engine (and its theme engine) to a new document
// snapshot, installs the adaptation stylesheet and rebuilds the marker
// index from whatever markers the snapshot already carries.
func (e *Engine) Attach(doc *dom.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc = doc
	e.themes.Attach(doc)
	doc.UpsertStyle(entity.AdaptationStyle, Stylesheet())
	e.idx = sweep(doc)
}

func (e *Engine) Document() *dom.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Adapted reports whether any structural marker is outstanding.
func (e *Engine) Adapted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.idx.empty()
}

// Apply resets structural adaptations and applies cmd on a clean slate.
// A command with Reset set only resets. Selectors that do not resolve are
// skipped; the rest of the command still applies.
func (e *Engine) Apply(ctx context.Context, cmd entity.AdaptationCommand) (Report, error) {
	if cmd.Reset {
		return Report{Layout: entity.LayoutNone.String()}, e.Reset(ctx, entity.ResetOptions{Theme: cmd.ResetTheme})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return Report{}, entity.ErrNoDocument
	}
	e.reset()

	var errs []error
	rep := Report{Layout: entity.LayoutNone.String()}

	if cmd.ApplyBionic {
		res := e.bionic.Apply(e.doc)
		e.idx.bionic = bionic.Merge(e.idx.bionic, res)
		rep.Bionic = len(res.Blocks)
	}

	if cmd.Theme != nil {
		t, err := entity.ParseTheme(*cmd.Theme)
		if err != nil {
			e.logger.Warn("theme skipped", "theme", *cmd.Theme)
			rep.Skipped = append(rep.Skipped, "theme:"+*cmd.Theme)
		} else if err := e.themes.Apply(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("apply theme: %w", err))
		} else {
			rep.Theme = t.String()
		}
	}

	for _, sel := range cmd.HideElements {
		n, ok := e.resolve(sel)
		if !ok {
			rep.Skipped = append(rep.Skipped, sel)
			continue
		}
		e.doc.SetAttr(n, entity.AttrHidden, "true")
		e.idx.hidden = append(e.idx.hidden, n)
		rep.Hidden++
	}

	for _, sel := range cmd.HighlightElements {
		n, ok := e.resolve(sel)
		if !ok {
			rep.Skipped = append(rep.Skipped, sel)
			continue
		}
		e.doc.AddClass(n, entity.ClassHighlight, entity.ClassUpscaled)
		e.idx.highlighted = append(e.idx.highlighted, n)
		rep.Highlighted++
	}

	mode, err := cmd.Layout()
	if err != nil {
		e.logger.Warn("layout skipped", "layout", cmd.LayoutMode)
		rep.Skipped = append(rep.Skipped, "layout:"+cmd.LayoutMode)
		mode = entity.LayoutNone
	}
	rep.Dimmed = e.applyLayout(mode)
	rep.Layout = mode.String()

	e.logger.Info("adaptations applied",
		"hidden", rep.Hidden, "highlighted", rep.Highlighted, "layout", rep.Layout,
		"bionic", rep.Bionic, "skipped", len(rep.Skipped))
	return rep, errors.Join(errs...)
}

func (e *Engine) applyLayout(mode entity.LayoutMode) int {
	body := e.doc.Body()
	if body == nil {
		return 0
	}
	e.idx.layout = mode

	switch mode {
	case entity.LayoutSimplified:
		e.doc.AddClass(body, entity.ClassSimplified)
	case entity.LayoutFocus:
		e.doc.AddClass(body, entity.ClassFocusMode)
		highlights, _ := e.doc.Query("." + entity.ClassHighlight)
		dimmed := 0
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || dom.IsOneOf(c.Data, "script", "style") || e.doc.InExtensionUI(c) {
				continue
			}
			if containsAny(c, highlights) {
				continue
			}
			e.doc.AddClass(c, entity.ClassDimmed)
			e.idx.dimmed = append(e.idx.dimmed, c)
			dimmed++
		}
		return dimmed
	}
	return 0
}

func containsAny(n *html.Node, nodes []*html.Node) bool {
	for _, h := range nodes {
		if dom.Contains(n, h) {
			return true
		}
	}
	return false
}

// resolve maps a selector to its first match, refusing the assistant UI.
func (e *Engine) resolve(selector string) (*html.Node, bool) {
	n, err := e.doc.QueryFirst(selector)
	if err != nil {
		e.logger.Debug("selector skipped", "selector", selector, "error", err)
		return nil, false
	}
	if e.doc.InExtensionUI(n) {
		e.logger.Debug("selector targets assistant ui", "selector", selector)
		return nil, false
	}
	return n, true
}

// Reset removes every structural marker; with opts.Theme it also returns
// the theme to none.
func (e *Engine) Reset(ctx context.Context, opts entity.ResetOptions) error {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return entity.ErrNoDocument
	}
	e.reset()
	e.mu.Unlock()

	if opts.Theme {
		if err := e.themes.Apply(ctx, entity.ThemeNone); err != nil {
			return fmt.Errorf("reset theme: %w", err)
		}
	}
	return nil
}

func (e *Engine) reset() {
	idx := e.idx
	e.idx = markerIndex{}

	for _, n := range idx.hidden {
		e.doc.RemoveAttr(n, entity.AttrHidden)
	}
	for _, n := range idx.highlighted {
		e.doc.RemoveClass(n, entity.ClassHighlight, entity.ClassUpscaled)
	}
	for _, n := range idx.flashed {
		e.doc.RemoveClass(n, entity.ClassHighlight)
	}
	for _, n := range idx.dimmed {
		e.doc.RemoveClass(n, entity.ClassDimmed)
	}
	for _, n := range idx.annotations {
		e.doc.Remove(n)
	}
	if body := e.doc.Body(); body != nil {
		e.doc.RemoveClass(body, entity.ClassFocusMode, entity.ClassSimplified)
	}
	if !idx.bionic.Empty() {
		e.bionic.Revert(e.doc, idx.bionic)
	}
}

// Flash highlights selector temporarily. The returned undo removes the
// highlight unless a later Apply highlighted the same node.
func (e *Engine) Flash(selector string) (undo func(), err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return nil, entity.ErrNoDocument
	}
	n, ok := e.resolve(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrElementNotFound, selector)
	}
	doc := e.doc
	doc.AddClass(n, entity.ClassHighlight)
	e.idx.flashed = append(e.idx.flashed, n)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.doc != doc || e.idx.isHighlighted(n) {
			return
		}
		doc.RemoveClass(n, entity.ClassHighlight)
		for i, f := range e.idx.flashed {
			if f == n {
				e.idx.flashed = append(e.idx.flashed[:i], e.idx.flashed[i+1:]...)
				break
			}
		}
	}, nil
}

// Annotate places a tooltip right after the target element.
func (e *Engine) Annotate(selector, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return entity.ErrNoDocument
	}
	n, ok := e.resolve(selector)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrElementNotFound, selector)
	}
	tip := dom.NewElement("div", html.Attribute{Key: "class", Val: entity.ClassAnnotation})
	tip.AppendChild(dom.NewText(text))
	e.doc.InsertAfter(n, tip)
	e.idx.annotations = append(e.idx.annotations, tip)
	return nil
}

// SetFontScale sets the root font size to scale em; 1 restores the page default.
func (e *Engine) SetFontScale(scale float64) error {
	if scale <= 0 || scale > maxFontScale {
		return fmt.Errorf("%w: %v", entity.ErrInvalidScale, scale)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return entity.ErrNoDocument
	}
	root := e.doc.DocumentElement()
	if root == nil {
		return fmt.Errorf("%w: html", entity.ErrElementNotFound)
	}

	style, _ := e.doc.Attr(root, "style")
	var kept []*css.Declaration
	for _, d := range dom.ParseInlineStyle(style) {
		if !strings.EqualFold(d.Property, "font-size") {
			kept = append(kept, d)
		}
	}
	if scale != 1 {
		kept = append(kept, &css.Declaration{Property: "font-size", Value: strconv.FormatFloat(scale, 'f', -1, 64) + "em"})
	}

	if len(kept) == 0 {
		e.doc.RemoveAttr(root, "style")
	} else {
		e.doc.SetAttr(root, "style", dom.FormatInlineStyle(kept))
	}
	e.logger.Info("font scale set", "scale", scale)
	return nil
}
