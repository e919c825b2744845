// Package api exposes the chat endpoint over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/forgefit/coach/internal/buildinfo"
	"github.com/forgefit/coach/internal/coach"
	"github.com/forgefit/coach/internal/tools"
)

// Server hosts the HTTP API.
type Server struct {
	logger    *slog.Logger
	loop      *coach.Loop
	jwtSecret string
	httpSrv   *http.Server
}

// NewServer builds the server. jwtSecret verifies inbound bearer tokens.
func NewServer(logger *slog.Logger, loop *coach.Loop, addr, jwtSecret string) *Server {
	s := &Server{
		logger:    logger,
		loop:      loop,
		jwtSecret: jwtSecret,
	}

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router(),
		ReadTimeout:  30 * time.Second,
		// Chat turns can span several model calls; give them room.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/ai/chat", s.handleChat)
		})
	})

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// authMiddleware verifies the bearer token and threads the authenticated
// user id through the request context. Every tool execution downstream is
// attributed to this id.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := validateJWT(tokenString, s.jwtSecret)
		if err != nil {
			s.logger.Warn("token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := tools.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"uptime":  buildinfo.Uptime().String(),
	})
}

// ChatRequest is the inbound chat payload: the client's visible history
// ending in one new user message.
type ChatRequest struct {
	Messages []coach.ChatMessage `json:"messages"`
}

// ChatResponse mirrors the request shape with the new assistant turn
// appended.
type ChatResponse struct {
	Messages []coach.ChatMessage `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, err := tools.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no authenticated user")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	messages, err := s.loop.Run(r.Context(), userID, req.Messages)
	if err != nil {
		s.logger.Error("chat turn failed", "user_id", userID, "error", err)
		writeError(w, http.StatusBadGateway, "chat generation failed")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Messages: messages})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
