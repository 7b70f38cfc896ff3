package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// tags whose text never reaches the reader
var silentTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

// TextContent mirrors DOM textContent: all descendant text, markup stripped.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

// ReadableText collects text a reader would see, skipping script-like
// content and any subtree for which skip returns true.
func ReadableText(n *html.Node, skip func(*html.Node) bool) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if silentTags[c.Data] || (skip != nil && skip(c)) {
				return
			}
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

// CollapseWhitespace squeezes runs of whitespace into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == max {
			return s[:pos]
		}
		i++
	}
	return s
}

// IsOneOf проверяет, что s совпадает с одним из candidates
func IsOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

// Ancestors lists n's element ancestors, nearest first.
func Ancestors(n *html.Node) []*html.Node {
	var out []*html.Node
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			out = append(out, cur)
		}
	}
	return out
}

// Contains reports whether n is ancestor or self of other.
func Contains(n, other *html.Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// AttrValue is a cheap attribute read without goquery.
func AttrValue(n *html.Node, key string) string {
	return attrValue(n, key)
}

func walkElements(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode {
		if !fn(n) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, fn)
	}
}

// WalkElements visits elements depth-first; returning false skips the subtree.
func WalkElements(n *html.Node, fn func(*html.Node) bool) {
	walkElements(n, fn)
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if r := findFirst(c, pred); r != nil {
			return r
		}
	}
	return nil
}
