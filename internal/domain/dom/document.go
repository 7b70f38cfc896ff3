package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"aura-runtime/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrInvalidSelector = errors.New("invalid selector")

// Document wraps a parsed page. All mutations go through it and are
// journaled so a live page can replay them.
type Document struct {
	root    *html.Node
	gq      *goquery.Document
	layout  Layout
	url     string
	journal []Mutation
	refs    map[*html.Node]int
	sels    map[string]cascadia.Selector
}

func New(root *html.Node, layout Layout, url string) *Document {
	if layout == nil {
		layout = NewInlineLayout(DefaultViewport)
	}
	return &Document{
		root:   root,
		gq:     goquery.NewDocumentFromNode(root),
		layout: layout,
		url:    url,
		refs:   make(map[*html.Node]int),
		sels:   make(map[string]cascadia.Selector),
	}
}

// Parse reads static HTML and lays it out with InlineLayout.
func Parse(r io.Reader, url string, vp entity.Viewport) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return New(root, NewInlineLayout(vp), url), nil
}

func ParseString(s, url string) (*Document, error) {
	return Parse(strings.NewReader(s), url, DefaultViewport)
}

func (d *Document) Root() *html.Node { return d.root }
func (d *Document) Layout() Layout   { return d.layout }
func (d *Document) URL() string      { return d.url }

func (d *Document) Body() *html.Node {
	return findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
}

func (d *Document) Head() *html.Node {
	return findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
}

// DocumentElement returns <html>.
func (d *Document) DocumentElement() *html.Node {
	return findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Html })
}

func (d *Document) Title() string {
	t := findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if t == nil {
		return ""
	}
	return strings.TrimSpace(TextContent(t))
}

func (d *Document) compile(selector string) (cascadia.Selector, error) {
	if s, ok := d.sels[selector]; ok {
		return s, nil
	}
	s, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	d.sels[selector] = s
	return s, nil
}

// Query returns every element matching selector in document order.
func (d *Document) Query(selector string) ([]*html.Node, error) {
	s, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	return d.gq.FindMatcher(s).Nodes, nil
}

// QueryFirst resolves selector to its first match.
func (d *Document) QueryFirst(selector string) (*html.Node, error) {
	s, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	n := s.MatchFirst(d.root)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrElementNotFound, selector)
	}
	return n, nil
}

// Matches reports whether n matches selector; invalid selectors never match.
func (d *Document) Matches(n *html.Node, selector string) bool {
	s, err := d.compile(selector)
	if err != nil {
		return false
	}
	return s.Match(n)
}

// Closest returns the nearest ancestor-or-self matching selector.
func (d *Document) Closest(n *html.Node, selector string) *html.Node {
	s, err := d.compile(selector)
	if err != nil {
		return nil
	}
	nodes := goquery.NewDocumentFromNode(n).Selection.ClosestMatcher(s).Nodes
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func (d *Document) ElementByID(id string) *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attrValue(n, "id") == id
	})
}

// InExtensionUI reports whether n is the assistant's own UI or inside it.
func (d *Document) InExtensionUI(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if id := attrValue(cur, "id"); id == entity.ExtensionMountID || id == entity.ExtensionRootID {
			return true
		}
	}
	return false
}

func (d *Document) sel(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

func (d *Document) Attr(n *html.Node, key string) (string, bool) {
	return d.sel(n).Attr(key)
}

func (d *Document) HasClass(n *html.Node, class string) bool {
	return d.sel(n).HasClass(class)
}

func (d *Document) SetAttr(n *html.Node, key, value string) {
	if v, ok := d.Attr(n, key); ok && v == value {
		return
	}
	d.sel(n).SetAttr(key, value)
	d.record(Mutation{Op: OpSetAttr, Node: n, Key: key, Value: value})
}

func (d *Document) RemoveAttr(n *html.Node, key string) {
	if _, ok := d.Attr(n, key); !ok {
		return
	}
	d.sel(n).RemoveAttr(key)
	d.record(Mutation{Op: OpRemoveAttr, Node: n, Key: key})
}

func (d *Document) AddClass(n *html.Node, classes ...string) {
	s := d.sel(n)
	changed := false
	for _, c := range classes {
		if !s.HasClass(c) {
			changed = true
		}
	}
	if !changed {
		return
	}
	s.AddClass(classes...)
	v := normalizeClasses(s)
	d.record(Mutation{Op: OpSetAttr, Node: n, Key: "class", Value: v})
}

func (d *Document) RemoveClass(n *html.Node, classes ...string) {
	s := d.sel(n)
	changed := false
	for _, c := range classes {
		if s.HasClass(c) {
			changed = true
		}
	}
	if !changed {
		return
	}
	s.RemoveClass(classes...)
	v := normalizeClasses(s)
	if v == "" {
		d.record(Mutation{Op: OpRemoveAttr, Node: n, Key: "class"})
		return
	}
	d.record(Mutation{Op: OpSetAttr, Node: n, Key: "class", Value: v})
}

func normalizeClasses(s *goquery.Selection) string {
	v, ok := s.Attr("class")
	if !ok {
		return ""
	}
	v = CollapseWhitespace(v)
	if v == "" {
		s.RemoveAttr("class")
		return ""
	}
	s.SetAttr("class", v)
	return v
}

// Replace swaps old for repl in the tree.
func (d *Document) Replace(old, repl *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
	d.record(Mutation{Op: OpReplace, Node: old, New: repl})
}

func (d *Document) InsertAfter(ref, n *html.Node) {
	if ref.Parent == nil {
		return
	}
	ref.Parent.InsertBefore(n, ref.NextSibling)
	d.record(Mutation{Op: OpInsertAfter, Node: ref, New: n})
}

func (d *Document) Remove(n *html.Node) {
	if n.Parent == nil {
		return
	}
	// journal before detaching so the live side can still resolve it
	d.record(Mutation{Op: OpRemove, Node: n})
	n.Parent.RemoveChild(n)
}

// UpsertStyle installs or rewrites <style id=id> in head.
func (d *Document) UpsertStyle(id, cssText string) *html.Node {
	if n := d.ElementByID(id); n != nil && n.DataAtom == atom.Style {
		if TextContent(n) == cssText {
			return n
		}
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: cssText})
		d.record(Mutation{Op: OpUpsertStyle, Node: n, Key: id, Value: cssText})
		return n
	}

	parent := d.Head()
	if parent == nil {
		parent = d.DocumentElement()
	}
	if parent == nil {
		parent = d.root
	}
	n := NewElement("style", html.Attribute{Key: "id", Val: id})
	n.AppendChild(&html.Node{Type: html.TextNode, Data: cssText})
	parent.AppendChild(n)
	d.record(Mutation{Op: OpUpsertStyle, Node: n, Key: id, Value: cssText})
	return n
}

// RemoveByID removes the element with the given id. Reports whether one existed.
func (d *Document) RemoveByID(id string) bool {
	n := d.ElementByID(id)
	if n == nil {
		return false
	}
	d.Remove(n)
	return true
}

func (d *Document) record(m Mutation) {
	d.journal = append(d.journal, m)
}

// Journal returns pending mutations without clearing them.
func (d *Document) Journal() []Mutation {
	return d.journal
}

// Drain returns and clears pending mutations.
func (d *Document) Drain() []Mutation {
	out := d.journal
	d.journal = nil
	return out
}

// SetRef binds n to a live-page handle.
func (d *Document) SetRef(n *html.Node, ref int) {
	d.refs[n] = ref
}

func (d *Document) Ref(n *html.Node) (int, bool) {
	r, ok := d.refs[n]
	return r, ok
}

// Render serialises the document back to HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) HTML() string {
	var sb strings.Builder
	_ = d.Render(&sb)
	return sb.String()
}

func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
