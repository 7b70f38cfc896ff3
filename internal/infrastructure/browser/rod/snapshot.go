package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// snapshotJS serialises the live DOM with computed style and geometry.
// Every visited node is stored in window.__auraNodes under its ref so that
// journaled mutations can later be addressed without selectors.
const snapshotJS = `() => {
	const nodes = [];
	window.__auraNodes = nodes;
	const walk = (n) => {
		const ref = nodes.length;
		nodes.push(n);
		switch (n.nodeType) {
		case Node.ELEMENT_NODE: {
			const cs = getComputedStyle(n);
			const r = n.getBoundingClientRect();
			const out = {
				k: 1,
				r: ref,
				t: n.tagName.toLowerCase(),
				a: Array.from(n.attributes, (a) => [a.name, a.value]),
				s: {d: cs.display, v: cs.visibility, o: parseFloat(cs.opacity)},
				b: [r.left, r.top, r.width, r.height],
				c: [],
			};
			if (n.tagName !== "TEMPLATE") {
				for (const ch of n.childNodes) {
					const w = walk(ch);
					if (w) out.c.push(w);
				}
			}
			return out;
		}
		case Node.TEXT_NODE:
			return {k: 3, r: ref, x: n.nodeValue};
		case Node.COMMENT_NODE:
			return {k: 8, r: ref, x: n.nodeValue};
		default:
			return null;
		}
	};
	const root = walk(document.documentElement);
	return {
		url: location.href,
		viewport: {width: window.innerWidth, height: window.innerHeight},
		root: root,
		next: nodes.length,
	};
}`

type snapStyle struct {
	Display    string   `json:"d"`
	Visibility string   `json:"v"`
	Opacity    *float64 `json:"o"`
}

type snapNode struct {
	Kind     int         `json:"k"`
	Ref      int         `json:"r"`
	Tag      string      `json:"t"`
	Attrs    [][2]string `json:"a"`
	Text     string      `json:"x"`
	Style    *snapStyle  `json:"s"`
	Box      []float64   `json:"b"`
	Children []snapNode  `json:"c"`
}

type snapshot struct {
	URL      string          `json:"url"`
	Viewport entity.Viewport `json:"viewport"`
	Root     *snapNode       `json:"root"`
	Next     int             `json:"next"`
}

// SnapshotLayout answers layout questions from what the browser reported
// at snapshot time. Nodes created afterwards are treated as visible with an
// empty box.
type SnapshotLayout struct {
	vp     entity.Viewport
	styles map[*html.Node]dom.ComputedStyle
	rects  map[*html.Node]dom.Rect
}

var _ dom.Layout = (*SnapshotLayout)(nil)

func (l *SnapshotLayout) Viewport() entity.Viewport { return l.vp }

func (l *SnapshotLayout) Style(n *html.Node) dom.ComputedStyle {
	if s, ok := l.styles[n]; ok {
		return s
	}
	return dom.ComputedStyle{Display: "block", Visibility: "visible", Opacity: 1}
}

func (l *SnapshotLayout) Rect(n *html.Node) dom.Rect {
	return l.rects[n]
}

// Snapshot captures the page into a document bound to the live nodes.
func (a *PageAdapter) Snapshot(ctx context.Context) (*dom.Document, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}
	res, err := a.page.Context(ctx).Timeout(a.timeout).Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("snapshot eval: %w", err)
	}

	doc, next, err := decodeSnapshot([]byte(res.Value.JSON("", "")))
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.nextRef = next
	a.mu.Unlock()

	a.logger.Debug("page snapshot", "url", doc.URL(), "nodes", next)
	return doc, nil
}

func decodeSnapshot(raw []byte) (*dom.Document, int, error) {
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Root == nil || snap.Root.Kind != 1 {
		return nil, 0, fmt.Errorf("decode snapshot: missing document element")
	}

	layout := &SnapshotLayout{
		vp:     snap.Viewport,
		styles: make(map[*html.Node]dom.ComputedStyle),
		rects:  make(map[*html.Node]dom.Rect),
	}
	refs := make(map[*html.Node]int)

	docNode := &html.Node{Type: html.DocumentNode}
	docNode.AppendChild(build(snap.Root, layout, refs))

	doc := dom.New(docNode, layout, snap.URL)
	for n, ref := range refs {
		doc.SetRef(n, ref)
	}

	next := snap.Next
	for _, ref := range refs {
		if ref >= next {
			next = ref + 1
		}
	}
	return doc, next, nil
}

func build(s *snapNode, layout *SnapshotLayout, refs map[*html.Node]int) *html.Node {
	var n *html.Node
	switch s.Kind {
	case 3:
		n = &html.Node{Type: html.TextNode, Data: s.Text}
	case 8:
		n = &html.Node{Type: html.CommentNode, Data: s.Text}
	default:
		tag := strings.ToLower(s.Tag)
		n = &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
		for _, kv := range s.Attrs {
			n.Attr = append(n.Attr, html.Attribute{Key: kv[0], Val: kv[1]})
		}
		if s.Style != nil {
			st := dom.ComputedStyle{Display: s.Style.Display, Visibility: s.Style.Visibility, Opacity: 1}
			if s.Style.Opacity != nil {
				st.Opacity = *s.Style.Opacity
			}
			layout.styles[n] = st
		}
		if len(s.Box) == 4 {
			layout.rects[n] = dom.Rect{X: s.Box[0], Y: s.Box[1], Width: s.Box[2], Height: s.Box[3]}
		}
		for i := range s.Children {
			n.AppendChild(build(&s.Children[i], layout, refs))
		}
	}
	refs[n] = s.Ref
	return n
}
