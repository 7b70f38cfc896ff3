package entity

type WindowState struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Minimized bool `json:"minimized"`
}

// WindowPatch is a partial update merged into the stored state.
type WindowPatch struct {
	X         *int  `json:"x,omitempty"`
	Y         *int  `json:"y,omitempty"`
	Width     *int  `json:"width,omitempty"`
	Height    *int  `json:"height,omitempty"`
	Minimized *bool `json:"minimized,omitempty"`
}

func (s WindowState) Merge(p WindowPatch) WindowState {
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Minimized != nil {
		s.Minimized = *p.Minimized
	}
	return s
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
