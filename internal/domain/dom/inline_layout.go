package dom

import (
	"strconv"
	"strings"

	"aura-runtime/internal/domain/entity"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

const (
	defaultBoxWidth  = 100
	defaultBoxHeight = 20
	flowLineHeight   = 20
)

var DefaultViewport = entity.Viewport{Width: 1280, Height: 720}

// elements that never render
var nonRendered = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"noscript": true, "title": true, "meta": true, "link": true,
}

// InlineLayout approximates rendering for static HTML: only inline style
// attributes are considered, boxes without explicit geometry are stacked in
// document order.
type InlineLayout struct {
	viewport entity.Viewport
	flow     map[*html.Node]int
	next     int
}

var _ Layout = (*InlineLayout)(nil)

func NewInlineLayout(vp entity.Viewport) *InlineLayout {
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = DefaultViewport
	}
	return &InlineLayout{viewport: vp, flow: make(map[*html.Node]int)}
}

func (l *InlineLayout) Viewport() entity.Viewport {
	return l.viewport
}

func (l *InlineLayout) Style(n *html.Node) ComputedStyle {
	cs := ComputedStyle{Display: "", Visibility: "visible", Opacity: 1}
	visibilitySet := false

	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if nonRendered[cur.Data] || hasAttr(cur, "hidden") {
			cs.Display = "none"
		}
		if cur.Data == "input" && strings.EqualFold(attrValue(cur, "type"), "hidden") {
			cs.Display = "none"
		}
		decls := inlineDeclarations(cur)
		if v, ok := decls["display"]; ok {
			if v == "none" {
				cs.Display = "none"
			} else if cur == n && cs.Display == "" {
				cs.Display = v
			}
		}
		if v, ok := decls["visibility"]; ok && !visibilitySet {
			cs.Visibility = v
			visibilitySet = true
		}
		if v, ok := decls["opacity"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				cs.Opacity *= f
			}
		}
	}
	if cs.Display == "" {
		cs.Display = "block"
	}
	return cs
}

func (l *InlineLayout) Rect(n *html.Node) Rect {
	decls := inlineDeclarations(n)
	r := Rect{Width: defaultBoxWidth, Height: defaultBoxHeight}

	if v, ok := px(decls["width"]); ok {
		r.Width = v
	}
	if v, ok := px(decls["height"]); ok {
		r.Height = v
	}
	if v, ok := px(decls["left"]); ok {
		r.X = v
	}
	if v, ok := px(decls["top"]); ok {
		r.Y = v
	} else {
		r.Y = float64(l.flowIndex(n) * flowLineHeight)
	}
	return r
}

func (l *InlineLayout) flowIndex(n *html.Node) int {
	if len(l.flow) == 0 {
		root := n
		for root.Parent != nil {
			root = root.Parent
		}
		walkElements(root, func(e *html.Node) bool {
			l.flow[e] = l.next
			l.next++
			return true
		})
	}
	if i, ok := l.flow[n]; ok {
		return i
	}
	l.flow[n] = l.next
	l.next++
	return l.flow[n]
}

// ParseInlineStyle parses a style attribute into declarations.
// Malformed input yields whatever was parsed before the error.
func ParseInlineStyle(style string) []*css.Declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	// the last declaration is only closed by ';'
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, _ := parser.ParseDeclarations(style)
	return decls
}

// FormatInlineStyle renders declarations back into a style attribute value.
func FormatInlineStyle(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, " ")
}

func inlineDeclarations(n *html.Node) map[string]string {
	out := make(map[string]string)
	for _, d := range ParseInlineStyle(attrValue(n, "style")) {
		out[strings.ToLower(d.Property)] = strings.ToLower(strings.TrimSpace(d.Value))
	}
	return out
}

func px(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
