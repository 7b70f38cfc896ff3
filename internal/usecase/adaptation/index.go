package adaptation

import (
	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/bionic"

	"golang.org/x/net/html"
)

// markerIndex records every node the engine has marked since the last reset.
type markerIndex struct {
	hidden      []*html.Node
	highlighted []*html.Node
	flashed     []*html.Node
	dimmed      []*html.Node
	annotations []*html.Node
	layout      entity.LayoutMode
	bionic      bionic.Result
}

func (m *markerIndex) empty() bool {
	return len(m.hidden) == 0 && len(m.highlighted) == 0 && len(m.flashed) == 0 &&
		len(m.dimmed) == 0 && len(m.annotations) == 0 &&
		(m.layout == "" || m.layout == entity.LayoutNone) && m.bionic.Empty()
}

func (m *markerIndex) isHighlighted(n *html.Node) bool {
	for _, h := range m.highlighted {
		if h == n {
			return true
		}
	}
	return false
}

// sweep rebuilds the index from markers already present in doc.
func sweep(doc *dom.Document) markerIndex {
	var idx markerIndex
	q := func(sel string) []*html.Node {
		nodes, _ := doc.Query(sel)
		return nodes
	}

	idx.hidden = q("[" + entity.AttrHidden + "]")
	idx.highlighted = q("." + entity.ClassHighlight + ", ." + entity.ClassUpscaled)
	idx.dimmed = q("." + entity.ClassDimmed)
	idx.annotations = q("." + entity.ClassAnnotation)
	if body := doc.Body(); body != nil {
		switch {
		case doc.HasClass(body, entity.ClassFocusMode):
			idx.layout = entity.LayoutFocus
		case doc.HasClass(body, entity.ClassSimplified):
			idx.layout = entity.LayoutSimplified
		}
	}
	idx.bionic = bionic.Sweep(doc)
	return idx
}
