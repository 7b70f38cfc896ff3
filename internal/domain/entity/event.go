package entity

type PageEventKind string

const (
	EventClick     PageEventKind = "click"
	EventScroll    PageEventKind = "scroll"
	EventMouseOver PageEventKind = "mouseover"
	EventMouseOut  PageEventKind = "mouseout"
	EventNavigated PageEventKind = "navigated"
)

// NodeInfo describes one element of a click target's ancestor chain.
type NodeInfo struct {
	Tag             string `json:"tag"`
	Role            string `json:"role,omitempty"`
	Href            bool   `json:"href,omitempty"`
	OnClick         bool   `json:"onclick,omitempty"`
	ContentEditable bool   `json:"contenteditable,omitempty"`
	TabIndex        *int   `json:"tabindex,omitempty"`
}

// PageEvent is a user interaction reported by the page.
type PageEvent struct {
	Kind PageEventKind `json:"type"`
	// Chain is the click target followed by its ancestors.
	Chain []NodeInfo `json:"chain,omitempty"`
	Y     float64    `json:"y,omitempty"`
	// Href is the raw attribute of the hovered link, Base the page URL.
	Href string `json:"href,omitempty"`
	Base string `json:"base,omitempty"`
}
