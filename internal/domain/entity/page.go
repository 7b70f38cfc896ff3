package entity

// PageModel is the compact semantic snapshot of a page sent to the backend.
type PageModel struct {
	Title          string             `json:"title"`
	URL            string             `json:"url"`
	MainSelector   string             `json:"main_selector"`
	ContentSummary string             `json:"content_summary"`
	Elements       []DistilledElement `json:"elements"`
	// Error is set when scraping stopped part-way; the rest of the model is partial.
	Error string `json:"error,omitempty"`
}

// DistilledElement: одно интерактивное или структурное место на странице.
type DistilledElement struct {
	Role          string `json:"role"`
	Text          string `json:"text"`
	Selector      string `json:"selector"`
	AriaLabel     string `json:"aria_label,omitempty"`
	InViewport    bool   `json:"in_viewport"`
	Y             int    `json:"y"`
	IsMainContent bool   `json:"is_main_content"`
}

// Partial reports whether the scraper hit an error while building the model.
func (m *PageModel) Partial() bool {
	return m.Error != ""
}
