package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"aura-runtime/internal/application/service"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/infrastructure/logger"
	"aura-runtime/internal/usecase/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name entity.CommandName
	err  error
}

func (c *stubCommand) Name() entity.CommandName { return c.name }
func (c *stubCommand) Description() string      { return "stub" }
func (c *stubCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (c *stubCommand) Execute(ctx context.Context, args string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf(`{"echo":%s}`, args), nil
}

type stubRunner struct {
	mu      sync.Mutex
	helpErr error
	helped  int
}

func (r *stubRunner) Run(ctx context.Context) error { return nil }

func (r *stubRunner) RequestHelp(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.helped++
	return r.helpErr
}

func (r *stubRunner) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.helpErr = err
}

func (r *stubRunner) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.helped
}

func (r *stubRunner) Stats(ctx context.Context) (entity.InteractionStats, error) {
	return entity.InteractionStats{RageClicks: 2}, nil
}

func newTestServer(t *testing.T, runner *stubRunner, cmds ...*stubCommand) *httptest.Server {
	t.Helper()
	reg := service.NewCommandRegistry()
	for _, c := range cmds {
		reg.Register(c)
	}
	srv := httptest.NewServer(NewServer(reg, runner, logger.NewNopLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubRunner{})
	code, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestCommands(t *testing.T) {
	srv := newTestServer(t, &stubRunner{},
		&stubCommand{name: entity.CommandSetTheme},
		&stubCommand{name: entity.CommandHighlight, err: fmt.Errorf("%w: #x", entity.ErrElementNotFound)},
	)

	code, body := do(t, http.MethodGet, srv.URL+"/commands", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"set_theme"`)
	assert.Contains(t, body, `"highlight"`)

	code, body = do(t, http.MethodPost, srv.URL+"/commands/set_theme", `{"theme":"dark"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"echo":{"theme":"dark"}}`, body)

	code, body = do(t, http.MethodPost, srv.URL+"/commands/set_theme", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"echo":{}}`, body)

	code, body = do(t, http.MethodPost, srv.URL+"/commands/highlight", `{"selector":"#x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body, "element not found")

	code, _ = do(t, http.MethodPost, srv.URL+"/commands/reload", `{}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrUnknownCommand, http.StatusNotFound},
		{fmt.Errorf("%w: 9", entity.ErrInvalidScale), http.StatusUnprocessableEntity},
		{entity.ErrUnknownTheme, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad json", entity.ErrInvalidArgs), http.StatusBadRequest},
		{session.ErrBusy, http.StatusConflict},
		{session.ErrStopped, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHelpAndStats(t *testing.T) {
	runner := &stubRunner{}
	srv := newTestServer(t, runner)

	code, _ := do(t, http.MethodPost, srv.URL+"/help", "")
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, 1, runner.calls())

	runner.fail(session.ErrBusy)
	code, _ = do(t, http.MethodPost, srv.URL+"/help", "")
	assert.Equal(t, http.StatusConflict, code)

	code, body := do(t, http.MethodGet, srv.URL+"/stats", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"rage_clicks":2,"scroll_loops":0}`, body)
}

func TestListenAndServe_StopsWithContext(t *testing.T) {
	s := NewServer(service.NewCommandRegistry(), &stubRunner{}, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-errc)
}
