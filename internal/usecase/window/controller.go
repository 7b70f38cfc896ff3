package window

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"
)

const (
	DefaultWidth  = 260
	DefaultHeight = 320
	MinWidth      = 280
	MinHeight     = 150

	// часть окна, которая всегда остаётся на экране
	edgeMargin  = 50
	rightOffset = 300
	topOffset   = 40
)

// Defaults is the initial floating window placement for a viewport.
func Defaults(vp entity.Viewport) entity.WindowState {
	return entity.WindowState{
		X:      max(0, vp.Width-rightOffset),
		Y:      topOffset,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
}

// Controller keeps the floating window state in the extension store.
type Controller struct {
	store  output.StoragePort
	logger output.LoggerPort

	mu        sync.Mutex
	vp        entity.Viewport
	state     entity.WindowState
	lastWrite []byte
}

func NewController(store output.StoragePort, logger output.LoggerPort) *Controller {
	return &Controller{
		store:  store,
		logger: logger.WithField("component", "window"),
		vp:     entity.Viewport{Width: 1280, Height: 720},
	}
}

// Load reads the stored state once and fits it into the viewport.
func (c *Controller) Load(ctx context.Context, vp entity.Viewport) (entity.WindowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vp = vp
	c.state = Defaults(vp)

	stored, ok, err := c.readLocked(ctx)
	if err != nil {
		return c.state, err
	}
	if ok {
		c.state.X = clamp(stored.X, 0, vp.Width-edgeMargin)
		c.state.Y = clamp(stored.Y, 0, vp.Height-edgeMargin)
		if stored.Width > 0 {
			c.state.Width = stored.Width
		}
		if stored.Height > 0 {
			c.state.Height = stored.Height
		}
		c.state.Minimized = stored.Minimized
	}
	return c.state, nil
}

func (c *Controller) State() entity.WindowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DragEnd stores the final position of a drag.
func (c *Controller) DragEnd(ctx context.Context, x, y int) (entity.WindowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	x = clamp(x, 0, c.vp.Width-edgeMargin)
	y = clamp(y, 0, c.vp.Height-edgeMargin)
	c.state.X, c.state.Y = x, y
	return c.state, c.saveLocked(ctx, entity.WindowPatch{X: &x, Y: &y})
}

// ResizeEnd stores the final size of a resize. The window never shrinks
// below the minimum and never grows past the viewport edge.
func (c *Controller) ResizeEnd(ctx context.Context, w, h int) (entity.WindowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w = max(MinWidth, min(w, c.vp.Width-c.state.X))
	h = max(MinHeight, min(h, c.vp.Height-c.state.Y))
	c.state.Width, c.state.Height = w, h
	return c.state, c.saveLocked(ctx, entity.WindowPatch{Width: &w, Height: &h})
}

func (c *Controller) Minimize(ctx context.Context) (entity.WindowState, error) {
	return c.setMinimized(ctx, true)
}

func (c *Controller) Expand(ctx context.Context) (entity.WindowState, error) {
	return c.setMinimized(ctx, false)
}

func (c *Controller) Toggle(ctx context.Context) (entity.WindowState, error) {
	return c.setMinimized(ctx, !c.State().Minimized)
}

func (c *Controller) setMinimized(ctx context.Context, v bool) (entity.WindowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Minimized = v
	return c.state, c.saveLocked(ctx, entity.WindowPatch{Minimized: &v})
}

// Watch follows writes made by other instances and picks up their
// minimized flag. It blocks until ctx is done.
func (c *Controller) Watch(ctx context.Context) error {
	changes, cancel := c.store.Subscribe(entity.KeyWindowState)
	defer cancel()

	// catch up with writes made between Load and Subscribe
	raw, ok, err := c.store.Get(ctx, entity.KeyWindowState)
	if err != nil && ctx.Err() == nil {
		c.logger.Warn("window state not re-read", "error", err)
	}
	if ok {
		c.apply(raw)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			c.apply(ch.Value)
		}
	}
}

func (c *Controller) apply(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bytes.Equal(raw, c.lastWrite) {
		return
	}
	var patch entity.WindowPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		c.logger.Warn("ignoring malformed window state", "error", err)
		return
	}
	if patch.Minimized != nil {
		c.state.Minimized = *patch.Minimized
	}
}

func (c *Controller) readLocked(ctx context.Context) (entity.WindowState, bool, error) {
	raw, ok, err := c.store.Get(ctx, entity.KeyWindowState)
	if err != nil {
		return entity.WindowState{}, false, fmt.Errorf("read window state: %w", err)
	}
	if !ok {
		return entity.WindowState{}, false, nil
	}
	var s entity.WindowState
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Warn("stored window state is malformed, using defaults", "error", err)
		return entity.WindowState{}, false, nil
	}
	return s, true, nil
}

// saveLocked merges the patch into the stored state, falling back to
// defaults when nothing has been stored yet.
func (c *Controller) saveLocked(ctx context.Context, patch entity.WindowPatch) error {
	current, ok, err := c.readLocked(ctx)
	if err != nil {
		return err
	}
	if !ok {
		current = Defaults(c.vp)
	}
	raw, err := json.Marshal(current.Merge(patch))
	if err != nil {
		return fmt.Errorf("encode window state: %w", err)
	}
	c.lastWrite = raw
	if err := c.store.Set(ctx, entity.KeyWindowState, raw); err != nil {
		return fmt.Errorf("write window state: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
