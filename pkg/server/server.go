// Package server exposes the command pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/tidwall/gjson"

	"github.com/aretw0/tiller/pkg/core"
	"github.com/aretw0/tiller/pkg/dispatch"
)

const (
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes = 64 << 10

	CodeInvalidRequest = "invalid_request"

	shutdownTimeout = 5 * time.Second
)

// Server serves the command endpoint and a few read-only helpers.
type Server struct {
	dispatcher *dispatch.Dispatcher
	service    *core.Service
	logger     *slog.Logger
	handler    http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server.
func New(d *dispatch.Dispatcher, svc *core.Service, opts ...Option) *Server {
	s := &Server{
		dispatcher: d,
		service:    svc,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/command", s.handleCommand)
	mux.HandleFunc("GET /api/notes", s.handleNotes)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = s.accessLog(mux)

	return s
}

// Handler returns the root handler, access logging included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once ListenAndServe is running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	lifecycle.Go(ctx, func(context.Context) error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return err
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("http server stopped", "error", err)
	}))

	s.logger.Info("listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	text := gjson.GetBytes(body, "text")
	if !gjson.ParseBytes(body).IsObject() || text.Type != gjson.String {
		writeError(w, http.StatusBadRequest, "text is required and must be a string")
		return
	}

	resp := s.dispatcher.Handle(r.Context(), text.String())
	writeJSON(w, resp.Status, resp.Payload)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := core.ParseFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	notes, err := s.service.ListNotes(r.Context(), core.ListOptions{Filter: filter, Limit: limit})
	if err != nil {
		s.logger.Error("list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dispatch.ErrorPayload{Error: dispatch.CodeStorageError, Detail: err.Error()})
		return
	}
	if notes == nil {
		notes = []core.Note{}
	}
	writeJSON(w, http.StatusOK, dispatch.NotesPayload{Notes: notes})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.State())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, dispatch.ErrorPayload{Error: CodeInvalidRequest, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
