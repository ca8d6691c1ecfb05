// Package server is the HTTP surface of the game: password auth over
// REST and the realtime fishing protocol over a websocket, driven by a
// server-side tick loop.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klevoclub/klevo/internal/db"
	"github.com/klevoclub/klevo/internal/game/fishing"
)

// Server wires the router, the auth service and the fishing engine.
type Server struct {
	log    *slog.Logger
	auth   *Auth
	engine *fishing.Engine
	tick   time.Duration
	mux    *chi.Mux
}

// New builds the server. tick is the cadence of the websocket state loop.
func New(logger *slog.Logger, auth *Auth, engine *fishing.Engine, tick time.Duration) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:    logger,
		auth:   auth,
		engine: engine,
		tick:   tick,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root http handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/ws", s.handleWS)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Login    string `json:"login"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Login = strings.TrimSpace(in.Login)
	in.Nickname = strings.TrimSpace(in.Nickname)
	if in.Login == "" || in.Password == "" || in.Nickname == "" {
		writeError(w, http.StatusBadRequest, "login, password and nickname are required")
		return
	}
	token, playerID, err := s.auth.Register(r.Context(), in.Login, in.Password, in.Nickname)
	if err != nil {
		if errors.Is(err, db.ErrLoginTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error("register failed", "login", in.Login, "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "player_id": playerID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, playerID, err := s.auth.Login(r.Context(), strings.TrimSpace(in.Login), in.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.log.Error("login failed", "login", in.Login, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "player_id": playerID})
}

// playerFromRequest authenticates the websocket upgrade. Browsers cannot
// set headers on a websocket, so the token also rides a query parameter.
func (s *Server) playerFromRequest(r *http.Request) (int64, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		return 0, false
	}
	return s.auth.Resolve(token)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
