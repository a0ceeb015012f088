// Package webserver exposes the engine's query surface over HTTP: current
// usage, history, refresh-now, and live update streams (SSE and websocket),
// behind JWT auth when configured.
package webserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/events"
	"github.com/pskel/usagebar/internal/history"
)

type AuthConfig struct {
	JWTSecret       string
	RefreshTokenTTL string
}

type TLSConfig struct {
	Mode     string // "self-signed" or "" (disabled)
	CacheDir string
}

type Config struct {
	Enabled bool
	Port    int
	Host    string
	TLS     TLSConfig
	Auth    AuthConfig
}

type Server struct {
	eng    *engine.Engine
	store  *history.DB
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	clients map[chan events.Event]struct{}
}

func New(eng *engine.Engine, store *history.DB, cfg Config, logger *slog.Logger) *Server {
	return &Server{
		eng:     eng,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		clients: make(map[chan events.Event]struct{}),
	}
}

// Update implements engine.Sink: every poll outcome is pushed to the
// connected stream clients.
func (s *Server) Update(st engine.State) {
	s.Broadcast(events.FromState(st))
}

// Broadcast implements events.Broadcaster.
func (s *Server) Broadcast(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *Server) addClient(ch chan events.Event) {
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(ch chan events.Event) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/usage", s.handleUsage)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /events", s.handleSSE)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleAuthRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	if s.cfg.Auth.JWTSecret != "" {
		return jwtMiddleware(s.cfg.Auth.JWTSecret, []string{"/api/auth/"}, mux)
	}
	return mux
}

func (s *Server) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	if s.cfg.TLS.Mode == "self-signed" {
		cacheDir := s.cfg.TLS.CacheDir
		if cacheDir == "" {
			home, _ := os.UserHomeDir()
			cacheDir = filepath.Join(home, ".claude", "usage-bar-certs")
		}
		tlsConf, err := selfSignedTLS(cacheDir, s.cfg.Host)
		if err != nil {
			return fmt.Errorf("tls setup: %w", err)
		}
		srv.TLSConfig = tlsConf
		go func() {
			if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				s.logger.Error("webserver stopped", "err", err)
			}
		}()
		return nil
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("webserver stopped", "err", err)
		}
	}()
	return nil
}

type usageResponse struct {
	Current           any    `json:"current"`
	LastError         string `json:"last_error,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors"`
	NetworkUp         bool   `json:"network_up"`
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	st := s.eng.Current()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(usageResponse{
		Current:           st.Current,
		LastError:         st.LastError,
		ConsecutiveErrors: st.ConsecutiveErrors,
		NetworkUp:         st.NetworkUp,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid days", 400)
			return
		}
		days = n
	}
	rows, err := s.store.Since(days)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if rows == nil {
		rows = []history.Row{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"rows": rows})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.eng.RefreshNow()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", 500)
		return
	}

	ch := make(chan events.Event, 16)
	s.addClient(ch)
	defer s.removeClient(ch)

	// Initial event so a new client renders without waiting for a poll.
	writeSSE(w, flusher, events.FromState(s.eng.Current()))

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-ch:
			writeSSE(w, flusher, e)
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, f http.Flusher, e events.Event) {
	data, _ := json.Marshal(e)
	fmt.Fprintf(w, "data: %s\n\n", data)
	f.Flush()
}
