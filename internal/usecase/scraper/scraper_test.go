package scraper

import (
	"strings"
	"testing"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScraper() *Scraper {
	return New(DefaultConfig(), logger.NewNopLogger())
}

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()
	d, err := dom.ParseString(src, "https://example.com/page")
	require.NoError(t, err)
	return d
}

func texts(m entity.PageModel) []string {
	out := make([]string, 0, len(m.Elements))
	for _, e := range m.Elements {
		out = append(out, e.Text)
	}
	return out
}

func TestScrape_ExcludesExtensionUI(t *testing.T) {
	d := parse(t, `<body>
<button>Buy</button>
<div id="aura-extension-mount"><button>Aura mic</button></div>
<div id="aura-extension-root"><a href="/x">Aura link</a></div>
</body>`)

	m := newScraper().Scrape(d)

	assert.Equal(t, []string{"Buy"}, texts(m))
	assert.Empty(t, m.Error)
}

func TestScrape_VisibilityFilter(t *testing.T) {
	d := parse(t, `<body>
<button style="display:none">Hidden</button>
<div style="display:none"><a href="/a">Nested hidden</a></div>
<button style="visibility: hidden">Invisible</button>
<button style="opacity: 0">Transparent</button>
<button style="width: 0px; height: 0px">Zero</button>
<button style="width: 4px">Thin</button>
<button>Shown</button>
</body>`)

	m := newScraper().Scrape(d)

	assert.Equal(t, []string{"Shown"}, texts(m))

	hidden, err := d.QueryFirst(`button[style="display:none"]`)
	require.NoError(t, err)
	_, tagged := d.Attr(hidden, entity.AttrAuraID)
	assert.False(t, tagged, "filtered elements are never tagged")
}

func TestScrape_TextAndRole(t *testing.T) {
	long := strings.Repeat("ж", 250)
	d := parse(t, `<body>
<a href="/home">  Home
   page </a>
<input placeholder="Search here">
<input aria-label="Email">
<input>
<div role="tab"></div>
<div role="menuitem">Settings</div>
<h2>`+long+`</h2>
</body>`)

	m := newScraper().Scrape(d)
	require.Len(t, m.Elements, 6)

	byText := map[string]entity.DistilledElement{}
	for _, e := range m.Elements {
		byText[e.Text] = e
	}

	assert.Equal(t, "link", byText["Home page"].Role)
	assert.Equal(t, "input", byText["Search here"].Role)
	assert.Equal(t, "Email", byText["Email"].AriaLabel)
	assert.Equal(t, "menuitem", byText["Settings"].Role)
	assert.Contains(t, byText, "", "bare input is kept without text")
	assert.Equal(t, 200, len([]rune(m.Elements[5].Text)))
	assert.Equal(t, "h2", m.Elements[5].Role)
}

func TestScrape_IDsAreStableAndUnique(t *testing.T) {
	d := parse(t, `<body><button>One</button><button>Two</button></body>`)
	s := newScraper()

	first := s.Scrape(d)
	require.Len(t, first.Elements, 2)
	assert.Equal(t, `[data-aura-id="aura-el-0"]`, first.Elements[0].Selector)
	assert.Equal(t, `[data-aura-id="aura-el-1"]`, first.Elements[1].Selector)

	// a new element appears before the existing ones
	body := d.Body()
	btn := dom.NewElement("button")
	btn.AppendChild(dom.NewText("Zero"))
	body.InsertBefore(btn, body.FirstChild)

	second := s.Scrape(d)
	require.Len(t, second.Elements, 3)

	seen := map[string]string{}
	for _, e := range second.Elements {
		_, dup := seen[e.Selector]
		assert.False(t, dup, "selector %s assigned twice", e.Selector)
		seen[e.Selector] = e.Text
	}
	assert.Equal(t, "One", seen[`[data-aura-id="aura-el-0"]`])
	assert.Equal(t, "Two", seen[`[data-aura-id="aura-el-1"]`])
	assert.Equal(t, "Zero", seen[`[data-aura-id="aura-el-2"]`])
}

func TestScrape_SkipsScriptText(t *testing.T) {
	d := parse(t, `<body><button><script>var x=1;</script>Go <style>b{}</style>now</button></body>`)

	m := newScraper().Scrape(d)
	require.Len(t, m.Elements, 1)
	assert.Equal(t, "Go now", m.Elements[0].Text)
}

func TestScrape_OnlyIncludedElementsGetIDs(t *testing.T) {
	d := parse(t, `<body><button>One</button><h2>  </h2><h3></h3><button>Two</button></body>`)

	m := newScraper().Scrape(d)
	require.Len(t, m.Elements, 2)
	assert.Equal(t, `[data-aura-id="aura-el-0"]`, m.Elements[0].Selector)
	assert.Equal(t, `[data-aura-id="aura-el-1"]`, m.Elements[1].Selector)

	headings, err := d.Query("h2, h3")
	require.NoError(t, err)
	for _, h := range headings {
		_, tagged := d.Attr(h, entity.AttrAuraID)
		assert.False(t, tagged, "empty %s tagged", h.Data)
	}
}

func TestScrape_SeedsFromExistingIDs(t *testing.T) {
	d := parse(t, `<body><button data-aura-id="aura-el-41">Old</button><button>New</button></body>`)

	m := New(DefaultConfig(), logger.NewNopLogger()).Scrape(d)

	require.Len(t, m.Elements, 2)
	assert.Equal(t, `[data-aura-id="aura-el-41"]`, m.Elements[0].Selector)
	assert.Equal(t, `[data-aura-id="aura-el-42"]`, m.Elements[1].Selector)
}

func TestScrape_Ordering(t *testing.T) {
	d := parse(t, `<body>
<button style="top: 2000px">Far</button>
<button style="top: 300px">Middle</button>
<button style="top: 900px">Below</button>
<button style="top: 10px">Top</button>
</body>`)

	m := newScraper().Scrape(d)

	assert.Equal(t, []string{"Top", "Middle", "Below", "Far"}, texts(m))
	assert.True(t, m.Elements[0].InViewport)
	assert.True(t, m.Elements[1].InViewport)
	assert.False(t, m.Elements[2].InViewport)
	assert.Equal(t, 10, m.Elements[0].Y)
}

func TestScrape_MainContent(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		selector string
	}{
		{"main with id", `<body><main id="content"><a href="/">x</a></main></body>`, "#content"},
		{"article", `<body><article><a href="/">x</a></article></body>`, "article"},
		{"class heuristic", `<body><div class="post-content"><a href="/">x</a></div></body>`, ".post-content"},
		{"none", `<body><a href="/">x</a></body>`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newScraper().Scrape(parse(t, tt.src))
			assert.Equal(t, tt.selector, m.MainSelector)
			require.Len(t, m.Elements, 1)
			assert.Equal(t, tt.selector != "body", m.Elements[0].IsMainContent)
		})
	}
}

func TestScrape_Summary(t *testing.T) {
	d := parse(t, `<html><head><title>Shop</title></head><body>
<nav>Menu</nav>
<main>
  <h1>Big   sale</h1>
  <p>Everything
  must go</p>
  <script>track()</script>
</main>
</body></html>`)

	m := newScraper().Scrape(d)

	assert.Equal(t, "Shop", m.Title)
	assert.Equal(t, "https://example.com/page", m.URL)
	assert.Equal(t, "Big sale Everything must go", m.ContentSummary)
}

func TestScrape_SummaryTruncated(t *testing.T) {
	d := parse(t, `<body><p>`+strings.Repeat("word ", 1000)+`</p></body>`)

	m := newScraper().Scrape(d)

	assert.Equal(t, 2000, len([]rune(m.ContentSummary)))
}

func TestScrape_ErrorMarker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Candidates = "button[["
	d := parse(t, `<body><button>x</button></body>`)

	m := New(cfg, logger.NewNopLogger()).Scrape(d)

	assert.True(t, m.Partial())
	assert.Empty(t, m.Elements)
	assert.Equal(t, "body", m.MainSelector)
}
