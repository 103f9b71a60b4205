package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// newPKCE returns a random code verifier and its S256 challenge.
func newPKCE() (verifier, challenge string, err error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	return verifier, base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// returnPath keeps post-login redirects on this host.
func returnPath(raw string) string {
	if raw == "" {
		return "/"
	}
	if u, err := url.Parse(raw); err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return raw
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	prov, ok := s.authProviders[chi.URLParam(r, "id")]
	if !ok {
		jsonError(w, "unknown provider", http.StatusNotFound)
		return
	}

	verifier, challenge, err := newPKCE()
	if err != nil {
		jsonError(w, "pkce generation failed", http.StatusInternalServerError)
		return
	}
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		jsonError(w, "state generation failed", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(stateBytes)

	prov.states.Put(state, loginState{
		Verifier: verifier,
		Return:   returnPath(r.URL.Query().Get("return")),
		ExpireAt: time.Now().Add(loginStateTTL),
	})

	authURL := prov.oauth2.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prov, ok := s.authProviders[id]
	if !ok {
		jsonError(w, "unknown provider", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	if q.Get("state") == "" || q.Get("code") == "" {
		jsonError(w, "missing state or code", http.StatusBadRequest)
		return
	}
	saved, ok := prov.states.Take(q.Get("state"))
	if !ok {
		jsonError(w, "invalid or expired state", http.StatusBadRequest)
		return
	}

	tok, err := prov.oauth2.Exchange(r.Context(), q.Get("code"),
		oauth2.SetAuthURLParam("code_verifier", saved.Verifier))
	if err != nil {
		logger.Warn("Code exchange failed", "provider", id, "error", err)
		jsonError(w, "code exchange failed", http.StatusBadGateway)
		return
	}
	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		jsonError(w, "no id_token in response", http.StatusBadGateway)
		return
	}
	idToken, err := prov.idVerifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		jsonError(w, "id_token invalid", http.StatusUnauthorized)
		return
	}

	// keep the refresh token so expired sessions can be renewed
	if tok.RefreshToken != "" {
		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			jsonError(w, "token claims invalid", http.StatusUnauthorized)
			return
		}
		if userID := userIDFromClaims(claims); userID != "" {
			if err := s.store.PutRefreshToken(userID, tok); err != nil {
				logger.Error("Failed to persist refresh token", "user_id", userID, "error", err)
			}
		}
	}

	if err := s.writeSession(w, id, rawIDToken); err != nil {
		logger.Error("Failed to write session cookie", "error", err)
		jsonError(w, "session encoding failed", http.StatusInternalServerError)
		return
	}
	RecordAuthEvent("login", "success", id)
	http.Redirect(w, r, saved.Return, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	logger.Info("User logged out")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) simpleLogin(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(s.authProviders))
	for id := range s.authProviders {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<h1>Sign in to Habits</h1><style>button{display:block;margin:10px 0;padding:10px 20px;}</style>`)
	for _, id := range ids {
		fmt.Fprintf(w, `<form action="/auth/login/%s"><button>%s</button></form>`,
			html.EscapeString(id), html.EscapeString(s.authProviders[id].name))
	}
}

// getAPIToken shows the session's "provider:jwt" token so it can be used as
// a bearer token.
func (s *Server) getAPIToken(w http.ResponseWriter, r *http.Request) {
	pID, tok, err := s.readSession(r)
	if err != nil {
		jsonError(w, "not logged in", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(providerToken(pID, tok)))
}

func (s *Server) generateAPIKey(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok || user.UserID == "" {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	apiKey, err := newAPIKey()
	if err != nil {
		logger.Error("Failed to generate API key", "error", err)
		jsonError(w, "key generation failed", http.StatusInternalServerError)
		return
	}
	keyHash := hashAPIKey(apiKey)
	if err := s.store.PutAPIKey(keyHash, user.UserID); err != nil {
		logger.Error("Failed to store API key", "userID", user.UserID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}

	logger.Info("Generated API key", "userID", user.UserID, "keyHash", truncateHash(keyHash))
	RecordAuthEvent("apikey", "created", "apikey")
	if err := writeJSON(w, http.StatusOK, APIKeyResponse{APIKey: apiKey}); err != nil {
		logger.Error("Failed to serialize API key response", "error", err)
	}
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok || user.UserID == "" {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	hashes, err := s.store.ListAPIKeyHashes(user.UserID)
	if err != nil {
		logger.Error("Failed to list API keys", "userID", user.UserID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}

	resp := APIKeyListResponse{Keys: make([]APIKeyInfo, 0, len(hashes))}
	for _, h := range hashes {
		resp.Keys = append(resp.Keys, APIKeyInfo{KeyHash: h, Display: truncateHash(h)})
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize API key list", "error", err)
	}
}

func (s *Server) revokeAPIKey(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok || user.UserID == "" {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	keyHash := chi.URLParam(r, "key_hash")
	owner, found, err := s.store.GetAPIKey(keyHash)
	if err != nil {
		logger.Error("Failed to look up API key", "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	// another user's key is reported as missing
	if !found || owner != user.UserID {
		jsonError(w, "api key not found", http.StatusNotFound)
		return
	}
	if err := s.store.DeleteAPIKey(keyHash); err != nil {
		logger.Error("Failed to delete API key", "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	logger.Info("Revoked API key", "userID", user.UserID, "keyHash", truncateHash(keyHash))
	RecordAuthEvent("apikey", "revoked", "apikey")
	w.WriteHeader(http.StatusNoContent)
}

