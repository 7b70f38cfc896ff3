package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL + "/")
	cfg.Logger = logger.NewNopLogger()
	return NewClient(cfg)
}

func TestClient_Process(t *testing.T) {
	bodies := make(chan []byte, 1)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		bodies <- body

		w.Header().Set("X-Process-Time", "0.12")
		_, _ = w.Write([]byte(`{"action":"adapt","ui_changes":{"hide_elements":["#ad"],"layout_mode":"focus","apply_bionic":true}}`))
	})

	decision, err := c.Process(context.Background(), entity.ProcessRequest{
		DOMData: entity.PageModel{Title: "T", URL: "https://example.com"},
		Profile: entity.UserProfile{AuraID: "guest-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ActionAdapt, decision.Action)
	cmd, ok := decision.Command()
	require.True(t, ok)
	assert.Equal(t, []string{"#ad"}, cmd.HideElements)
	assert.Equal(t, "focus", cmd.LayoutMode)
	assert.True(t, cmd.ApplyBionic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(<-bodies, &got))
	dom := got["dom_data"].(map[string]any)
	assert.Equal(t, "https://example.com", dom["url"])
	assert.Equal(t, "guest-1", got["profile"].(map[string]any)["aura_id"])
	assert.Equal(t, []any{}, got["logs"])
	assert.Equal(t, false, got["is_explicit"])
}

func TestClient_ProcessApplyUIShape(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"action":"apply_ui","ui_command":{"hide":["nav"],"highlight":["#buy"],"layout_mode":"simplified","explanation":"Focused on checkout"}}`))
	})

	decision, err := c.Process(context.Background(), entity.ProcessRequest{})
	require.NoError(t, err)
	cmd, ok := decision.Command()
	require.True(t, ok)
	assert.Equal(t, []string{"nav"}, cmd.HideElements)
	assert.Equal(t, []string{"#buy"}, cmd.HighlightElements)
	assert.Equal(t, "Focused on checkout", cmd.Explanation)
}

func TestClient_ProcessToolCall(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"action":"call_ui_tool","tool":"SetTheme","params":{"theme":"dark"}}`))
	})

	decision, err := c.Process(context.Background(), entity.ProcessRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.ActionCallUITool, decision.Action)
	assert.Equal(t, "SetTheme", decision.Tool)
	assert.JSONEq(t, `{"theme":"dark"}`, string(decision.Params))
	_, ok := decision.Command()
	assert.False(t, ok)
}

func TestClient_ProcessEmptyActionIsNone(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"looks fine"}`))
	})

	decision, err := c.Process(context.Background(), entity.ProcessRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.ActionNone, decision.Action)
	assert.Equal(t, "looks fine", decision.Message)
}

func TestClient_ProcessErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusUnprocessableEntity, `{"error":"Missing dom_data or profile"}`, "status 422: Missing dom_data or profile"},
		{"plain error", http.StatusInternalServerError, `oops`, "status 500"},
		{"bad json", http.StatusOK, `{"action":`, "decode /process response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Process(context.Background(), entity.ProcessRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_PrefetchRateLimited(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/prefetch", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"url":"https://example.com/next"}`, string(body))
		_, _ = w.Write([]byte(`{"message":"URL accepted for prefetching."}`))
	})

	ctx := context.Background()
	require.NoError(t, c.Prefetch(ctx, "https://example.com/next"))
	err := c.Prefetch(ctx, "https://example.com/next")
	assert.ErrorIs(t, err, entity.ErrRateLimited)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Process(ctx, entity.ProcessRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
