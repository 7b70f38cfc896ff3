package rod

import (
	"context"
	"fmt"
	"strings"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"golang.org/x/net/html"
)

// syncOp is the wire form of one dom.Mutation.
type syncOp struct {
	Op    string `json:"op"`
	Ref   *int   `json:"ref,omitempty"`
	Sel   string `json:"sel,omitempty"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	// New nodes arrive as HTML (or plain text) and take refs First, First+1, ...
	// in document order.
	HTML  string  `json:"html,omitempty"`
	Text  *string `json:"text,omitempty"`
	First int     `json:"first,omitempty"`
}

type syncResult struct {
	Applied int `json:"applied"`
	Missed  int `json:"missed"`
}

const syncJS = `(ops) => {
	const nodes = window.__auraNodes || (window.__auraNodes = []);
	const find = (o) => {
		if (o.ref !== undefined) {
			const n = nodes[o.ref];
			if (n && n.isConnected) return n;
		}
		return o.sel ? document.querySelector(o.sel) : null;
	};
	const build = (o) => {
		let fresh = null;
		if (o.text !== undefined) {
			fresh = document.createTextNode(o.text);
		} else {
			const tpl = document.createElement("template");
			tpl.innerHTML = o.html;
			fresh = tpl.content.firstChild;
		}
		let i = o.first || 0;
		const register = (n) => {
			nodes[i++] = n;
			for (const c of n.childNodes) register(c);
		};
		if (fresh) register(fresh);
		return fresh;
	};
	let applied = 0, missed = 0;
	for (const o of ops) {
		try {
			if (o.op === "upsert_style") {
				let s = document.getElementById(o.key);
				if (!s) {
					s = document.createElement("style");
					s.id = o.key;
					(document.head || document.documentElement).appendChild(s);
				}
				s.textContent = o.value || "";
				applied++;
				continue;
			}
			const el = find(o);
			if (!el) { missed++; continue; }
			switch (o.op) {
			case "set_attr": el.setAttribute(o.key, o.value || ""); break;
			case "remove_attr": el.removeAttribute(o.key); break;
			case "remove": el.remove(); break;
			case "replace": { const f = build(o); if (f) el.replaceWith(f); else el.remove(); break; }
			case "insert_after": { const f = build(o); if (f) el.after(f); break; }
			default: missed++; continue;
			}
			applied++;
		} catch (e) {
			missed++;
		}
	}
	return {applied, missed};
}`

// Sync replays the document's pending mutations into the live page.
func (a *PageAdapter) Sync(ctx context.Context, doc *dom.Document) error {
	if a.isClosed() {
		return ErrClosed
	}
	muts := doc.Drain()
	if len(muts) == 0 {
		return nil
	}

	a.mu.Lock()
	ops, next := encodeOps(doc, muts, a.nextRef)
	a.nextRef = next
	a.mu.Unlock()

	res, err := a.page.Context(ctx).Timeout(a.timeout).Eval(syncJS, ops)
	if err != nil {
		return fmt.Errorf("sync eval: %w", err)
	}

	var out syncResult
	out.Applied = res.Value.Get("applied").Int()
	out.Missed = res.Value.Get("missed").Int()
	if out.Missed > 0 {
		a.logger.Warn("some mutations did not reach the page", "applied", out.Applied, "missed", out.Missed)
	} else {
		a.logger.Debug("page synced", "applied", out.Applied)
	}
	return nil
}

// encodeOps converts mutations into wire ops. Nodes created in Go get fresh
// refs starting at next; the updated counter is returned.
func encodeOps(doc *dom.Document, muts []dom.Mutation, next int) ([]syncOp, int) {
	ops := make([]syncOp, 0, len(muts))
	for _, m := range muts {
		op := syncOp{Op: m.Op.String(), Key: m.Key, Value: m.Value}

		if m.Op != dom.OpUpsertStyle {
			ref, sel, ok := target(doc, m.Node)
			if !ok {
				continue
			}
			op.Ref, op.Sel = ref, sel
		}

		if m.New != nil && (m.Op == dom.OpReplace || m.Op == dom.OpInsertAfter) {
			if m.New.Type == html.TextNode {
				text := m.New.Data
				op.Text = &text
			} else {
				var sb strings.Builder
				if err := html.Render(&sb, m.New); err != nil {
					continue
				}
				op.HTML = sb.String()
			}
			op.First = next
			next = assignRefs(doc, m.New, next)
		}
		ops = append(ops, op)
	}
	return ops, next
}

// target picks the live handle of n, falling back to a selector built from
// its id or aura id.
func target(doc *dom.Document, n *html.Node) (*int, string, bool) {
	if n == nil {
		return nil, "", false
	}
	var ref *int
	if r, ok := doc.Ref(n); ok {
		ref = &r
	}
	var sel string
	if n.Type == html.ElementNode {
		if id := dom.AttrValue(n, "id"); id != "" {
			sel = fmt.Sprintf(`[id=%q]`, id)
		} else if aid := dom.AttrValue(n, entity.AttrAuraID); aid != "" {
			sel = entity.SelectorForID(aid)
		}
	}
	return ref, sel, ref != nil || sel != ""
}

func assignRefs(doc *dom.Document, n *html.Node, next int) int {
	doc.SetRef(n, next)
	next++
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		next = assignRefs(doc, c, next)
	}
	return next
}
