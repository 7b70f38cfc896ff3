package scraper

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"golang.org/x/net/html"
)

type Config struct {
	Candidates     string
	MainHeuristics []string
	// roles kept even without text
	BareRoles     []string
	MaxTextLen    int
	MaxSummaryLen int
	MinBoxSize    float64
}

func DefaultConfig() Config {
	return Config{
		Candidates: `button, a, input:not([type="hidden"]), select, textarea, h1, h2, h3, ` +
			`[role="button"], [role="link"], [role="menuitem"], [role="tab"], [role="checkbox"], [role="switch"]`,
		MainHeuristics: []string{"main", "article", "#content", ".content", ".post-content"},
		BareRoles:      []string{"input", "button", "link"},
		MaxTextLen:     200,
		MaxSummaryLen:  2000,
		MinBoxSize:     5,
	}
}

// Scraper builds PageModels. Ids it hands out are never reused for the
// lifetime of the scraper.
type Scraper struct {
	cfg    Config
	logger output.LoggerPort

	mu     sync.Mutex
	nextID int
}

func New(cfg Config, logger output.LoggerPort) *Scraper {
	return &Scraper{cfg: cfg, logger: logger.WithField("component", "scraper")}
}

// Scrape never panics; a failure outside the element loop returns the
// partial model with Error set.
func (s *Scraper) Scrape(doc *dom.Document) (model entity.PageModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model = entity.PageModel{
		URL:          doc.URL(),
		MainSelector: "body",
		Elements:     []entity.DistilledElement{},
	}
	defer func() {
		if r := recover(); r != nil {
			model.Error = fmt.Sprintf("scrape aborted: %v", r)
			s.logger.Error("scrape aborted", "panic", r, "url", doc.URL())
		}
	}()

	model.Title = doc.Title()
	s.seedIDs(doc)

	main, mainSelector := s.findMain(doc)
	model.MainSelector = mainSelector
	model.ContentSummary = s.summary(doc, main)

	nodes, err := doc.Query(s.cfg.Candidates)
	if err != nil {
		model.Error = err.Error()
		return model
	}

	vp := doc.Layout().Viewport()
	for _, n := range nodes {
		el, ok := s.distill(doc, n, main, vp)
		if ok {
			model.Elements = append(model.Elements, el)
		}
	}

	sort.SliceStable(model.Elements, func(i, j int) bool {
		a, b := model.Elements[i], model.Elements[j]
		if a.InViewport != b.InViewport {
			return a.InViewport
		}
		return a.Y < b.Y
	})

	s.logger.Debug("page scraped", "url", model.URL, "elements", len(model.Elements))
	return model
}

func (s *Scraper) distill(doc *dom.Document, n, main *html.Node, vp entity.Viewport) (el entity.DistilledElement, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("element skipped", "panic", r)
			ok = false
		}
	}()

	if doc.InExtensionUI(n) {
		return el, false
	}
	layout := doc.Layout()
	if layout.Style(n).Hidden() {
		return el, false
	}
	rect := layout.Rect(n)
	if rect.Width < s.cfg.MinBoxSize || rect.Height < s.cfg.MinBoxSize {
		return el, false
	}

	aria, _ := doc.Attr(n, "aria-label")
	el = entity.DistilledElement{
		Role:          roleOf(doc, n),
		Text:          dom.Truncate(textOf(doc, n), s.cfg.MaxTextLen),
		AriaLabel:     aria,
		InViewport:    rect.Inside(vp),
		Y:             int(rect.Y),
		IsMainContent: main != nil && dom.Contains(main, n),
	}
	if el.Text == "" && !dom.IsOneOf(el.Role, s.cfg.BareRoles...) {
		return el, false
	}

	// only elements that make it into the model are tagged
	el.Selector = entity.SelectorForID(s.ensureID(doc, n))
	return el, true
}

func (s *Scraper) ensureID(doc *dom.Document, n *html.Node) string {
	if id, ok := doc.Attr(n, entity.AttrAuraID); ok && id != "" {
		return id
	}
	id := entity.AuraIDPrefix + strconv.Itoa(s.nextID)
	s.nextID++
	doc.SetAttr(n, entity.AttrAuraID, id)
	return id
}

// seedIDs moves the counter past ids already present, e.g. after a page
// reload or a fresh snapshot of an already tagged page.
func (s *Scraper) seedIDs(doc *dom.Document) {
	dom.WalkElements(doc.Root(), func(n *html.Node) bool {
		v := dom.AttrValue(n, entity.AttrAuraID)
		if !strings.HasPrefix(v, entity.AuraIDPrefix) {
			return true
		}
		if num, err := strconv.Atoi(strings.TrimPrefix(v, entity.AuraIDPrefix)); err == nil && num >= s.nextID {
			s.nextID = num + 1
		}
		return true
	})
}

func (s *Scraper) findMain(doc *dom.Document) (*html.Node, string) {
	for _, sel := range s.cfg.MainHeuristics {
		n, err := doc.QueryFirst(sel)
		if err != nil {
			continue
		}
		if id, ok := doc.Attr(n, "id"); ok && id != "" {
			return n, "#" + id
		}
		return n, sel
	}
	return nil, "body"
}

func (s *Scraper) summary(doc *dom.Document, main *html.Node) string {
	src := main
	if src == nil {
		src = doc.Body()
	}
	if src == nil {
		return ""
	}
	txt := dom.CollapseWhitespace(dom.ReadableText(src, doc.InExtensionUI))
	return dom.Truncate(txt, s.cfg.MaxSummaryLen)
}

func roleOf(doc *dom.Document, n *html.Node) string {
	tag := strings.ToLower(n.Data)
	if tag == "a" {
		return "link"
	}
	if role, ok := doc.Attr(n, "role"); ok && strings.TrimSpace(role) != "" {
		return strings.TrimSpace(role)
	}
	return tag
}

func textOf(doc *dom.Document, n *html.Node) string {
	if t := dom.CollapseWhitespace(dom.ReadableText(n, doc.InExtensionUI)); t != "" {
		return t
	}
	if p, ok := doc.Attr(n, "placeholder"); ok && strings.TrimSpace(p) != "" {
		return strings.TrimSpace(p)
	}
	if a, ok := doc.Attr(n, "aria-label"); ok {
		return strings.TrimSpace(a)
	}
	return ""
}
