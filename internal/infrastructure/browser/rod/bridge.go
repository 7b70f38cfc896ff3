package rod

import (
	"encoding/json"
	"fmt"

	"aura-runtime/internal/domain/entity"

	"github.com/ysmood/gson"
)

const bindingName = "__auraEmit"

// bridgeJS forwards the interactions the detectors need. Clicks inside the
// extension UI are not reported.
var bridgeJS = fmt.Sprintf(`(() => {
	if (window.__auraBridge) return;
	window.__auraBridge = true;

	const uiSelector = %q;
	const send = (ev) => {
		try {
			const emit = window[%q];
			if (emit) emit(ev).catch(() => {});
		} catch (e) {}
	};
	const elementOf = (t) => (t instanceof Element ? t : (t && t.parentElement) || null);
	const info = (el) => ({
		tag: el.tagName.toLowerCase(),
		role: el.getAttribute("role") || undefined,
		href: el.hasAttribute("href") || undefined,
		onclick: el.hasAttribute("onclick") || typeof el.onclick === "function" || undefined,
		contenteditable: el.isContentEditable || undefined,
		tabindex: el.hasAttribute("tabindex") ? el.tabIndex : undefined,
	});

	document.addEventListener("click", (e) => {
		const target = elementOf(e.target);
		if (!target || target.closest(uiSelector)) return;
		const chain = [];
		for (let el = target; el; el = el.parentElement) chain.push(info(el));
		send({type: "click", chain});
	}, true);

	let scheduled = false;
	window.addEventListener("scroll", () => {
		if (scheduled) return;
		scheduled = true;
		requestAnimationFrame(() => {
			scheduled = false;
			send({type: "scroll", y: window.scrollY});
		});
	}, {passive: true});

	const linkOf = (t) => {
		const el = elementOf(t);
		return el ? el.closest("a[href]") : null;
	};
	document.addEventListener("mouseover", (e) => {
		const a = linkOf(e.target);
		if (a) send({type: "mouseover", href: a.getAttribute("href"), base: document.baseURI});
	}, true);
	document.addEventListener("mouseout", (e) => {
		const a = linkOf(e.target);
		if (!a || (e.relatedTarget && a.contains(e.relatedTarget))) return;
		send({type: "mouseout"});
	}, true);

	if (document.readyState === "loading") {
		document.addEventListener("DOMContentLoaded", () => send({type: "navigated"}));
	} else {
		send({type: "navigated"});
	}
})()`, entity.ExtensionUISelector, bindingName)

func (a *PageAdapter) installBridge() error {
	stop, err := a.page.Expose(bindingName, a.onEvent)
	if err != nil {
		return fmt.Errorf("failed to expose event binding: %w", err)
	}
	a.stopExpose = stop

	if _, err := a.page.EvalOnNewDocument(bridgeJS); err != nil {
		return fmt.Errorf("failed to register event bridge: %w", err)
	}
	return nil
}

func (a *PageAdapter) onEvent(payload gson.JSON) (interface{}, error) {
	ev, err := decodeEvent(payload)
	if err != nil {
		a.logger.Warn("dropping malformed page event", "error", err)
		return nil, nil
	}

	select {
	case a.events <- ev:
	default:
		a.logger.Warn("event buffer full, dropping page event", "type", ev.Kind)
	}
	return nil, nil
}

func decodeEvent(payload gson.JSON) (entity.PageEvent, error) {
	var ev entity.PageEvent
	if err := json.Unmarshal([]byte(payload.JSON("", "")), &ev); err != nil {
		return ev, fmt.Errorf("decode page event: %w", err)
	}
	switch ev.Kind {
	case entity.EventClick, entity.EventScroll, entity.EventMouseOver, entity.EventMouseOut, entity.EventNavigated:
		return ev, nil
	default:
		return ev, fmt.Errorf("unknown page event %q", ev.Kind)
	}
}
