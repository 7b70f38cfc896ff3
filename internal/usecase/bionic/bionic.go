package bionic

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/net/html"
)

const (
	blockSelector = "p, li, span, h1, h2, h3, h4, h5, h6"
	minBlockRunes = 20
	minNodeRunes  = 3
)

// text here is code or user input, never reading material
var untouchable = map[string]bool{
	"script": true, "style": true, "textarea": true, "code": true, "pre": true,
	"noscript": true, "template": true,
}

// Result lists what a pass marked so it can be reverted exactly.
type Result struct {
	Blocks   []*html.Node
	Wrappers []*html.Node
}

func (r *Result) merge(o Result) {
	r.Blocks = append(r.Blocks, o.Blocks...)
	r.Wrappers = append(r.Wrappers, o.Wrappers...)
}

func (r Result) Empty() bool {
	return len(r.Blocks) == 0 && len(r.Wrappers) == 0
}

type Transformer struct {
	logger output.LoggerPort
}

func NewTransformer(logger output.LoggerPort) *Transformer {
	return &Transformer{logger: logger.WithField("component", "bionic")}
}

// Apply transforms every eligible block once. Blocks already processed are
// skipped, so repeated calls are no-ops.
func (t *Transformer) Apply(doc *dom.Document) Result {
	var res Result

	blocks, err := doc.Query(blockSelector)
	if err != nil {
		t.logger.Error("block query failed", "error", err)
		return res
	}

	for _, b := range blocks {
		if !t.eligible(doc, b) {
			continue
		}
		wrappers := t.transformBlock(doc, b)
		doc.SetAttr(b, entity.AttrBionic, "true")
		res.Blocks = append(res.Blocks, b)
		res.Wrappers = append(res.Wrappers, wrappers...)
	}

	if len(res.Blocks) > 0 {
		t.logger.Debug("bionic applied", "blocks", len(res.Blocks), "nodes", len(res.Wrappers))
	}
	return res
}

func (t *Transformer) eligible(doc *dom.Document, b *html.Node) bool {
	if b.Parent == nil {
		return false
	}
	if _, ok := doc.Attr(b, entity.AttrBionic); ok {
		return false
	}
	for _, a := range dom.Ancestors(b) {
		if dom.AttrValue(a, entity.AttrBionic) != "" || dom.AttrValue(a, entity.AttrBionicWord) != "" {
			return false
		}
		if untouchable[a.Data] {
			return false
		}
	}
	if doc.Closest(b, "."+entity.ClassAnnotation) != nil || doc.InExtensionUI(b) {
		return false
	}
	return utf8.RuneCountInString(dom.TextContent(b)) > minBlockRunes
}

func (t *Transformer) transformBlock(doc *dom.Document, block *html.Node) []*html.Node {
	var targets []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if utf8.RuneCountInString(strings.TrimSpace(c.Data)) > minNodeRunes {
					targets = append(targets, c)
				}
			case html.ElementNode:
				if untouchable[c.Data] || dom.AttrValue(c, entity.AttrBionicWord) != "" {
					continue
				}
				collect(c)
			}
		}
	}
	collect(block)

	wrappers := make([]*html.Node, 0, len(targets))
	for _, n := range targets {
		if w, ok := t.replace(doc, n); ok {
			wrappers = append(wrappers, w)
		}
	}
	return wrappers
}

func (t *Transformer) replace(doc *dom.Document, n *html.Node) (w *html.Node, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("text node skipped", "panic", r)
			ok = false
		}
	}()
	w = Wrap(n.Data)
	doc.Replace(n, w)
	return w, true
}

// Revert restores the original text of every wrapper in r and unmarks its
// blocks. Nodes detached since Apply are ignored.
func (t *Transformer) Revert(doc *dom.Document, r Result) int {
	restored := 0
	for _, w := range r.Wrappers {
		if w.Parent == nil {
			continue
		}
		doc.Replace(w, dom.NewText(dom.TextContent(w)))
		restored++
	}
	for _, b := range r.Blocks {
		doc.RemoveAttr(b, entity.AttrBionic)
	}
	return restored
}

// Sweep finds markers left in a document, e.g. a fresh snapshot of a page
// that was transformed earlier.
func Sweep(doc *dom.Document) Result {
	var res Result
	dom.WalkElements(doc.Root(), func(n *html.Node) bool {
		if dom.AttrValue(n, entity.AttrBionicWord) != "" {
			res.Wrappers = append(res.Wrappers, n)
			return false
		}
		if dom.AttrValue(n, entity.AttrBionic) != "" {
			res.Blocks = append(res.Blocks, n)
		}
		return true
	})
	return res
}

// Wrap builds the replacement for a text node: a marked span whose words
// carry a bold prefix. Its text content equals s.
func Wrap(s string) *html.Node {
	span := dom.NewElement("span", html.Attribute{Key: entity.AttrBionicWord, Val: "true"})

	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			span.AppendChild(dom.NewText(plain.String()))
			plain.Reset()
		}
	}

	tokens := words.FromString(s)
	for tokens.Next() {
		tok := tokens.Value()
		if !isWord(tok) {
			plain.WriteString(tok)
			continue
		}
		k := PrefixLen(utf8.RuneCountInString(tok))
		cut := byteOffset(tok, k)
		flush()
		b := dom.NewElement("b")
		b.AppendChild(dom.NewText(tok[:cut]))
		span.AppendChild(b)
		plain.WriteString(tok[cut:])
	}
	flush()
	return span
}

// PrefixLen is how many leading runes of an n-rune word are emphasised.
func PrefixLen(n int) int {
	if n <= 3 {
		return 1
	}
	return (n + 1) / 2
}

func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func byteOffset(s string, runes int) int {
	i := 0
	for pos := range s {
		if i == runes {
			return pos
		}
		i++
	}
	return len(s)
}

// Merge combines two results.
func Merge(a, b Result) Result {
	a.merge(b)
	return a
}
