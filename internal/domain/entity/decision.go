package entity

import "encoding/json"

type DecisionAction string

const (
	ActionNone       DecisionAction = "none"
	ActionAdapt      DecisionAction = "adapt"
	ActionApplyUI    DecisionAction = "apply_ui"
	ActionCallUITool DecisionAction = "call_ui_tool"
)

// ProcessRequest is the payload of one scrape → backend round trip.
type ProcessRequest struct {
	DOMData    PageModel   `json:"dom_data"`
	Profile    UserProfile `json:"profile"`
	Logs       []string    `json:"logs"`
	IsExplicit bool        `json:"is_explicit"`
}

// UICommand is the older apply_ui response shape.
type UICommand struct {
	Hide        []string `json:"hide,omitempty"`
	Highlight   []string `json:"highlight,omitempty"`
	LayoutMode  string   `json:"layout_mode,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	ApplyBionic bool     `json:"apply_bionic,omitempty"`
}

// Decision is what the backend wants done with the page.
type Decision struct {
	Action    DecisionAction     `json:"action"`
	UIChanges *AdaptationCommand `json:"ui_changes,omitempty"`
	UICommand *UICommand         `json:"ui_command,omitempty"`
	Tool      string             `json:"tool,omitempty"`
	Params    json.RawMessage    `json:"params,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// Command returns the adaptation to apply for adapt and apply_ui decisions.
func (d Decision) Command() (AdaptationCommand, bool) {
	switch d.Action {
	case ActionAdapt:
		if d.UIChanges == nil {
			return AdaptationCommand{}, false
		}
		return *d.UIChanges, true
	case ActionApplyUI:
		if d.UICommand == nil {
			return AdaptationCommand{}, false
		}
		return AdaptationCommand{
			HideElements:      d.UICommand.Hide,
			HighlightElements: d.UICommand.Highlight,
			LayoutMode:        d.UICommand.LayoutMode,
			ApplyBionic:       d.UICommand.ApplyBionic,
			Explanation:       d.UICommand.Explanation,
		}, true
	}
	return AdaptationCommand{}, false
}
