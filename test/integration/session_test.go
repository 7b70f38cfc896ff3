package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"aura-runtime/internal/adapter/command"
	"aura-runtime/internal/application/service"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/infrastructure/backend"
	"aura-runtime/internal/infrastructure/browser/rod"
	"aura-runtime/internal/infrastructure/httpapi"
	"aura-runtime/internal/infrastructure/logger"
	"aura-runtime/internal/infrastructure/storage"
	"aura-runtime/internal/usecase/adaptation"
	"aura-runtime/internal/usecase/bionic"
	"aura-runtime/internal/usecase/scraper"
	"aura-runtime/internal/usecase/session"
	"aura-runtime/internal/usecase/theme"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopHTML = `<!DOCTYPE html>
<html>
<head><title>Shop</title></head>
<body>
	<nav id="nav"><a href="/home">Home</a></nav>
	<main id="main">
		<h1>Deals</h1>
		<p id="intro">Today we have a few very interesting offers for you.</p>
		<button id="buy">Buy now</button>
	</main>
	<aside id="ads"><a href="/promo">Promo</a></aside>
</body>
</html>`

// fakeAPI plays the decision backend.
type fakeAPI struct {
	mu       sync.Mutex
	requests []entity.ProcessRequest
	decision string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		var req entity.ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		d := f.decision
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, d)
	})
	mux.HandleFunc("/prefetch", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (f *fakeAPI) seen() []entity.ProcessRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.ProcessRequest(nil), f.requests...)
}

type yesNotifier struct{}

func (yesNotifier) OfferHelp(context.Context, entity.StruggleSignal) bool { return true }
func (yesNotifier) ShowDecision(context.Context, entity.Decision)        {}
func (yesNotifier) ShowError(context.Context, error)                     {}

type stack struct {
	page    *rod.PageAdapter
	session *session.Session
	api     *httptest.Server
}

func newStack(t *testing.T, decision string) (*stack, *fakeAPI) {
	t.Helper()
	if os.Getenv("AURA_BROWSER_TESTS") != "1" {
		t.Skip("set AURA_BROWSER_TESTS=1 to run browser tests")
	}
	log := logger.NewNopLogger()
	ctx, cancel := context.WithCancel(context.Background())

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, shopHTML)
	}))
	t.Cleanup(site.Close)

	fake := &fakeAPI{decision: decision}
	backendSrv := httptest.NewServer(fake.handler())
	t.Cleanup(backendSrv.Close)

	cfg := rod.DefaultConfig()
	cfg.Logger = log
	page, err := rod.NewPageAdapter(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, page.Navigate(ctx, site.URL))

	clientCfg := backend.DefaultConfig(backendSrv.URL)
	clientCfg.Logger = log

	store := storage.NewMemoryStore()
	themes := theme.NewEngine(store, log)
	sess := session.New(session.DefaultConfig(), session.Deps{
		Page:     page,
		Backend:  backend.NewClient(clientCfg),
		Store:    store,
		Notifier: yesNotifier{},
		Engine:   adaptation.NewEngine(themes, bionic.NewTransformer(log), log),
		Themes:   themes,
		Scraper:  scraper.New(scraper.DefaultConfig(), log),
		Logger:   log,
	})

	registry := service.NewCommandRegistry()
	command.Register(registry, sess, log)
	api := httptest.NewServer(httpapi.NewServer(registry, sess, log).Handler())

	errc := make(chan error, 1)
	go func() { errc <- sess.Run(ctx) }()
	t.Cleanup(func() {
		api.Close()
		cancel()
		<-errc
		_ = page.Close()
	})

	// первый запрос блокируется, пока сессия не стартовала
	require.Eventually(t, func() bool {
		_, err := sess.Stats(ctx)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)

	return &stack{page: page, session: sess, api: api}, fake
}

func eval(t *testing.T, s *stack, js string) string {
	t.Helper()
	res, err := s.page.Eval(context.Background(), js)
	require.NoError(t, err)
	return res
}

func TestSession_RequestHelpAppliesDecision(t *testing.T) {
	s, fake := newStack(t, `{"action":"adapt","ui_changes":{"hide_elements":["#ads"],"highlight_elements":["#buy"],"explanation":"less noise"}}`)
	ctx := context.Background()

	require.NoError(t, s.session.RequestHelp(ctx))

	require.Eventually(t, func() bool {
		return eval(t, s, `() => getComputedStyle(document.getElementById("ads")).display`) == "none"
	}, 10*time.Second, 100*time.Millisecond)
	assert.Equal(t, "true", eval(t, s, `() => String(document.getElementById("buy").classList.contains("aura-highlight-active"))`))

	reqs := fake.seen()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].IsExplicit)
	assert.Equal(t, "Shop", reqs[0].DOMData.Title)
	assert.Contains(t, reqs[0].Logs, "User initiated proactive help")
}

func TestSession_ControlAPI(t *testing.T) {
	s, _ := newStack(t, `{"action":"none"}`)

	resp, err := http.Post(s.api.URL+"/commands/adapt_ui", "application/json",
		strings.NewReader(`{"hide_elements":["#nav"],"layout_mode":"simplified"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", eval(t, s, `() => getComputedStyle(document.getElementById("nav")).display`))

	resp, err = http.Post(s.api.URL+"/commands/reset_ui", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, "none", eval(t, s, `() => getComputedStyle(document.getElementById("nav")).display`))

	resp, err = http.Post(s.api.URL+"/commands/highlight", "application/json", strings.NewReader(`{"selector":"#missing"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
