package entity

import "time"

type StruggleKind string

const (
	StruggleRepetitiveClicks StruggleKind = "repetitive_clicks"
	StruggleScrollLoop       StruggleKind = "scroll_loop"
)

type StruggleSignal struct {
	Kind StruggleKind `json:"kind"`
	At   time.Time    `json:"at"`
}

type PrefetchSignal struct {
	URL string    `json:"url"`
	At  time.Time `json:"at"`
}

// InteractionStats accumulates struggle signals for the backend.
type InteractionStats struct {
	RageClicks  int `json:"rage_clicks"`
	ScrollLoops int `json:"scroll_loops"`
}

func (s *InteractionStats) Record(kind StruggleKind) {
	switch kind {
	case StruggleRepetitiveClicks:
		s.RageClicks++
	case StruggleScrollLoop:
		s.ScrollLoops++
	}
}
