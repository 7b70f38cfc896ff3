package struggle

import (
	"strconv"
	"strings"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"golang.org/x/net/html"
)

var interactiveTags = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"label":    true,
	"summary":  true,
	"option":   true,
}

var interactiveRoles = map[string]bool{
	"button":           true,
	"link":             true,
	"checkbox":         true,
	"radio":            true,
	"switch":           true,
	"tab":              true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"option":           true,
	"textbox":          true,
	"combobox":         true,
	"searchbox":        true,
	"slider":           true,
	"spinbutton":       true,
}

// interactive reports whether the node itself reacts to clicks.
func interactive(n entity.NodeInfo) bool {
	tag := strings.ToLower(n.Tag)
	switch {
	case tag == "a" && n.Href:
		return true
	case interactiveTags[tag]:
		return true
	case interactiveRoles[strings.ToLower(strings.TrimSpace(n.Role))]:
		return true
	case n.OnClick, n.ContentEditable:
		return true
	case n.TabIndex != nil && *n.TabIndex >= 0:
		return true
	}
	return false
}

// IsInteractive checks the target (chain[0]) and all of its ancestors.
func IsInteractive(chain []entity.NodeInfo) bool {
	for _, n := range chain {
		if interactive(n) {
			return true
		}
	}
	return false
}

// ChainFromNode builds the target-first ancestor chain of a Go DOM element.
func ChainFromNode(n *html.Node) []entity.NodeInfo {
	var chain []entity.NodeInfo
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		chain = append(chain, infoFromNode(cur))
	}
	return chain
}

func infoFromNode(n *html.Node) entity.NodeInfo {
	info := entity.NodeInfo{
		Tag:     n.Data,
		Role:    dom.AttrValue(n, "role"),
		Href:    hasAttr(n, "href"),
		OnClick: hasAttr(n, "onclick"),
	}
	if ce, ok := attr(n, "contenteditable"); ok {
		ce = strings.ToLower(strings.TrimSpace(ce))
		info.ContentEditable = ce == "" || ce == "true" || ce == "plaintext-only"
	}
	if ti, ok := attr(n, "tabindex"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(ti)); err == nil {
			info.TabIndex = &v
		}
	}
	return info
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}
