package dom

import (
	"aura-runtime/internal/domain/entity"

	"golang.org/x/net/html"
)

// ComputedStyle holds the subset of computed style the runtime cares about.
type ComputedStyle struct {
	Display    string
	Visibility string
	Opacity    float64
}

func (s ComputedStyle) Hidden() bool {
	return s.Display == "none" || s.Visibility == "hidden" || s.Opacity == 0
}

// Rect is a viewport-relative bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Right() float64  { return r.X + r.Width }

// Inside reports whether r lies fully within the viewport.
func (r Rect) Inside(vp entity.Viewport) bool {
	return r.Y >= 0 && r.X >= 0 && r.Bottom() <= float64(vp.Height) && r.Right() <= float64(vp.Width)
}

// Layout answers rendering questions the node tree itself cannot.
type Layout interface {
	Style(n *html.Node) ComputedStyle
	Rect(n *html.Node) Rect
	Viewport() entity.Viewport
}
