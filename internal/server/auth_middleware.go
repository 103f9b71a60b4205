package server

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
)

// apiKeyPrefix marks bearer tokens that are API keys rather than ID tokens.
const apiKeyPrefix = "hab_"

type userCtxKey struct{}

type User struct {
	Subject string
	Email   string
	UserID  string
	Claims  map[string]any
}

// credential is what a request presented: an API key, or an ID token of a
// configured provider from the session cookie or the Authorization header.
type credential struct {
	apiKey     string
	providerID string
	idToken    string
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred := s.credentialFrom(r)

		var (
			u  *User
			ok bool
		)
		switch {
		case cred.apiKey != "":
			u, ok = s.authenticateAPIKey(cred.apiKey)
		case cred.idToken != "":
			u, ok = s.authenticateIDToken(w, r, cred)
		default:
			RecordAuthEvent("verification", "missing_token", "unknown")
		}
		if !ok {
			// a rejected ID token also invalidates the session cookie
			s.handleAuthFailure(w, r, cred.idToken != "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u)))
	})
}

// credentialFrom prefers a valid session cookie over the Authorization
// header. Tokens of unknown providers are ignored.
func (s *Server) credentialFrom(r *http.Request) credential {
	if pID, tok, err := s.readSession(r); err == nil && s.authProviders[pID] != nil {
		return credential{providerID: pID, idToken: tok}
	} else if err != nil && !errors.Is(err, http.ErrNoCookie) {
		logger.Debug("Ignoring session cookie", "error", err)
	}

	bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || bearer == "" {
		return credential{}
	}
	if strings.HasPrefix(bearer, apiKeyPrefix) {
		return credential{apiKey: bearer}
	}
	pID, tok, err := splitProviderToken(bearer)
	if err != nil {
		logger.Debug("Ignoring bearer token", "error", err)
		return credential{}
	}
	if s.authProviders[pID] == nil {
		logger.Debug("Unknown provider in bearer token", "provider", pID)
		return credential{}
	}
	return credential{providerID: pID, idToken: tok}
}

// authenticateIDToken verifies the token, refreshing it through the stored
// refresh token once it has expired. A refreshed token replaces the session
// cookie.
func (s *Server) authenticateIDToken(w http.ResponseWriter, r *http.Request, cred credential) (*User, bool) {
	prov := s.authProviders[cred.providerID]

	idTok, err := prov.idVerifier.Verify(r.Context(), cred.idToken)
	if err == nil {
		RecordAuthEvent("verification", "success", cred.providerID)
		return userFromIDToken(idTok)
	}
	logger.Debug("ID token rejected, trying refresh", "provider", cred.providerID, "error", err)
	RecordAuthEvent("verification", "failed", cred.providerID)

	fresh, err := s.refreshIDToken(r.Context(), cred.providerID, cred.idToken)
	if err != nil {
		logger.Debug("Token refresh failed", "provider", cred.providerID, "error", err)
		RecordAuthEvent("refresh", "failed", cred.providerID)
		return nil, false
	}
	idTok, err = prov.idVerifier.Verify(r.Context(), fresh)
	if err != nil {
		logger.Debug("Refreshed ID token rejected", "provider", cred.providerID, "error", err)
		RecordAuthEvent("refresh", "verification_failed", cred.providerID)
		return nil, false
	}
	RecordAuthEvent("refresh", "success", cred.providerID)

	if err := s.writeSession(w, cred.providerID, fresh); err != nil {
		logger.Error("Failed to update session cookie", "error", err)
		return nil, false
	}
	return userFromIDToken(idTok)
}

func userFromIDToken(idTok *oidc.IDToken) (*User, bool) {
	var claims map[string]any
	if err := idTok.Claims(&claims); err != nil {
		logger.Error("Failed to extract claims from token", "error", err)
		return nil, false
	}
	return &User{
		Subject: idTok.Subject,
		Email:   strClaim(claims, "email"),
		UserID:  userIDFromClaims(claims),
		Claims:  claims,
	}, true
}

func strClaim(m map[string]any, k string) string {
	if v, ok := m[k].(string); ok {
		return v
	}
	return ""
}

// userIDFromClaims derives a stable user id from the issuer and subject.
func userIDFromClaims(claims map[string]any) string {
	iss, ok := claims["iss"].(string)
	if !ok {
		return ""
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return ""
	}
	hash := sha256.Sum256([]byte(iss + "|" + sub))
	return fmt.Sprintf("user-%x", hash[:8])
}

// userIDFromContext returns the authenticated user's id, "anonymous" when auth
// is disabled and "" when no user was attached.
func userIDFromContext(authEnabled bool, r *http.Request) string {
	if !authEnabled {
		return "anonymous"
	}
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok {
		logger.Error("No user in context")
		return ""
	}
	return user.UserID
}

// expiredClaims reads the claims of an ID token whose signature is valid but
// which may be past its expiry.
func (s *Server) expiredClaims(ctx context.Context, providerID, token string) (map[string]any, error) {
	prov := s.authProviders[providerID]
	verifier := prov.oidcProv.Verifier(&oidc.Config{
		ClientID:        prov.oauth2.ClientID,
		SkipExpiryCheck: true,
	})
	idTok, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verify expired token: %w", err)
	}
	var claims map[string]any
	err = idTok.Claims(&claims)
	return claims, err
}

// handleAuthFailure sends browsers to the login page and API clients a 401.
func (s *Server) handleAuthFailure(w http.ResponseWriter, r *http.Request, clearCookie bool) {
	if clearCookie {
		clearSession(w)
	}

	accept := r.Header.Get("Accept")
	if r.Method == http.MethodGet && (accept == "" || strings.Contains(accept, "text/html")) {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	if clearCookie {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="habits"`)
	}
	jsonError(w, "unauthorized", http.StatusUnauthorized)
}

// refreshIDToken exchanges the user's stored refresh token for a new ID token.
// A refresh token the provider rejects is deleted.
func (s *Server) refreshIDToken(ctx context.Context, providerID, expired string) (string, error) {
	claims, err := s.expiredClaims(ctx, providerID, expired)
	if err != nil {
		return "", err
	}
	userID := userIDFromClaims(claims)
	if userID == "" {
		return "", errors.New("no user id in token claims")
	}

	stored, found, err := s.store.GetRefreshToken(userID)
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if !found {
		return "", errors.New("no refresh token stored")
	}

	fresh, err := s.authProviders[providerID].oauth2.TokenSource(ctx, stored).Token()
	if err != nil {
		if delErr := s.store.DeleteRefreshToken(userID); delErr != nil {
			logger.Error("Failed to delete refresh token", "user_id", userID, "error", delErr)
		}
		return "", fmt.Errorf("refresh: %w", err)
	}
	if err := s.store.PutRefreshToken(userID, fresh); err != nil {
		logger.Error("Failed to persist refresh token", "user_id", userID, "error", err)
	}

	idToken, _ := fresh.Extra("id_token").(string)
	if idToken == "" {
		return "", errors.New("no id_token in refreshed token")
	}
	logger.Debug("Refreshed ID token", "user_id", userID, "expiry", fresh.Expiry)
	return idToken, nil
}

// authenticateAPIKey looks the key up by its hash. API key users carry no
// email; the subject names the key.
func (s *Server) authenticateAPIKey(apiKey string) (*User, bool) {
	keyHash := hashAPIKey(apiKey)
	userID, found, err := s.store.GetAPIKey(keyHash)
	if err != nil {
		logger.Error("Failed to lookup API key", "error", err)
		RecordAuthEvent("verification", "failed", "apikey")
		return nil, false
	}
	if !found {
		RecordAuthEvent("verification", "failed", "apikey")
		return nil, false
	}
	RecordAuthEvent("verification", "success", "apikey")
	return &User{
		UserID:  userID,
		Subject: "apikey:" + truncateHash(keyHash),
		Claims:  map[string]any{"auth_method": "api_key"},
	}, true
}
