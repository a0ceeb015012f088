package webserver

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 15 * time.Minute

func (s *Server) refreshTokenTTL() time.Duration {
	if d, err := time.ParseDuration(s.cfg.Auth.RefreshTokenTTL); err == nil && d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", 400)
		return
	}

	acc, err := s.store.GetAccountByUsername(body.Username)
	if err != nil {
		http.Error(w, "unauthorized", 401)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(body.Password)) != nil {
		http.Error(w, "unauthorized", 401)
		return
	}

	s.issueTokens(w, acc.ID, acc.Username)
}

func (s *Server) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", 400)
		return
	}

	rt, err := s.store.GetRefreshToken(body.RefreshToken)
	if err != nil {
		http.Error(w, "unauthorized", 401)
		return
	}

	// Rotate: the presented token is single-use.
	s.store.DeleteRefreshToken(rt.Token)

	acc, err := s.store.GetAccountByID(rt.AccountID)
	if err != nil {
		http.Error(w, "unauthorized", 401)
		return
	}
	s.issueTokens(w, acc.ID, acc.Username)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", 400)
		return
	}
	s.store.DeleteRefreshToken(body.RefreshToken)
	w.WriteHeader(204)
}

func (s *Server) issueTokens(w http.ResponseWriter, accountID, username string) {
	access, err := IssueAccessToken(s.cfg.Auth.JWTSecret, username, accessTokenTTL)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	refresh, err := GenerateRefreshToken()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if err := s.store.CreateRefreshToken(refresh, accountID, time.Now().Add(s.refreshTokenTTL())); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}
