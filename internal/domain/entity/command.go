package entity

import (
	"fmt"
	"strings"
)

type LayoutMode string

const (
	LayoutNone       LayoutMode = "none"
	LayoutSimplified LayoutMode = "simplified"
	LayoutFocus      LayoutMode = "focus"
)

func (m LayoutMode) String() string {
	if m == "" {
		return string(LayoutNone)
	}
	return string(m)
}

// ParseLayoutMode accepts "normal" as an alias of "none"; the backend emits both.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "normal":
		return LayoutNone, nil
	case "simplified":
		return LayoutSimplified, nil
	case "focus":
		return LayoutFocus, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
}

// AdaptationCommand is the declarative bundle of changes produced by the backend.
// Nil pointers mean "not requested".
type AdaptationCommand struct {
	HideElements      []string `json:"hide_elements,omitempty"`
	HighlightElements []string `json:"highlight_elements,omitempty"`
	LayoutMode        string   `json:"layout_mode,omitempty"`
	ApplyBionic       bool     `json:"apply_bionic,omitempty"`
	Theme             *string  `json:"theme,omitempty"`
	Reset             bool     `json:"reset,omitempty"`
	ResetTheme        bool     `json:"reset_theme,omitempty"`

	// Explanation is shown to the user, the engines ignore it.
	Explanation string `json:"explanation,omitempty"`
}

// Layout returns the parsed layout mode.
func (c AdaptationCommand) Layout() (LayoutMode, error) {
	return ParseLayoutMode(c.LayoutMode)
}

type ResetOptions struct {
	// Theme also returns the theme to none.
	Theme bool `json:"theme"`
}
