package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"aura-runtime/internal/application/port/input"
	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

const maxBody = 1 << 20

// Server exposes the runtime commands to local tools (the floating window,
// scripts, tests).
type Server struct {
	registry output.CommandRegistry
	runner   input.SessionRunner
	logger   output.LoggerPort
	handler  http.Handler
	srv      *http.Server
}

func NewServer(registry output.CommandRegistry, runner input.SessionRunner, logger output.LoggerPort) *Server {
	s := &Server{
		registry: registry,
		runner:   runner,
		logger:   logger.WithField("component", "httpapi"),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(httplog.NewLogger("aura", httplog.Options{JSON: true, Concise: true})))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/commands", s.listCommands)
	r.Post("/commands/{name}", s.runCommand)
	r.Post("/help", s.requestHelp)
	r.Get("/stats", s.stats)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("control api listening", "addr", addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}

func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Definitions())
}

func (s *Server) runCommand(w http.ResponseWriter, r *http.Request) {
	name := entity.CommandName(chi.URLParam(r, "name"))
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.registry.Execute(r.Context(), name, string(body))
	if err != nil {
		s.logger.Debug("command failed", "command", name, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func (s *Server) requestHelp(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.RequestHelp(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.runner.Stats(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrElementNotFound),
		errors.Is(err, entity.ErrUnknownTheme),
		errors.Is(err, entity.ErrUnknownLayout),
		errors.Is(err, entity.ErrInvalidScale):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrStopped), errors.Is(err, entity.ErrNoDocument):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrInvalidArgs):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
