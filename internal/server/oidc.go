package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Surya5599/habittracker/internal/config"
	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"
)

const (
	sessionCookieName = "session"
	sessionMaxAge     = 24 * time.Hour
	loginStateTTL     = 5 * time.Minute
)

type oidcProvider struct {
	name       string
	oauth2     *oauth2.Config
	oidcProv   *oidc.Provider
	idVerifier *oidc.IDTokenVerifier
	states     *loginStates
}

// loginState is what a login redirect needs to remember until the callback.
type loginState struct {
	Verifier string
	Return   string
	ExpireAt time.Time
}

// loginStates holds pending PKCE logins. Expired entries are dropped on the
// next write.
type loginStates struct {
	mu sync.Mutex
	m  map[string]loginState
}

func newLoginStates() *loginStates {
	return &loginStates{m: make(map[string]loginState)}
}

func (ls *loginStates) Put(key string, v loginState) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	now := time.Now()
	for k, old := range ls.m {
		if now.After(old.ExpireAt) {
			delete(ls.m, k)
		}
	}
	ls.m[key] = v
}

// Take returns the state for key once; a second call or an expired entry
// reports false.
func (ls *loginStates) Take(key string) (loginState, bool) {
	ls.mu.Lock()
	v, ok := ls.m[key]
	delete(ls.m, key)
	ls.mu.Unlock()

	if !ok || time.Now().After(v.ExpireAt) {
		return loginState{}, false
	}
	return v, true
}

func configureProviders(ctx context.Context, cfgs []config.OIDCProviderConfig) (map[string]*oidcProvider, error) {
	logger.Info("Configuring OIDC providers", "count", len(cfgs))
	providers := make(map[string]*oidcProvider, len(cfgs))

	for _, pc := range cfgs {
		logger.Debug("Setting up OIDC provider", "id", pc.Id, "name", pc.Name, "issuer", pc.IssuerURL)
		prov, err := oidc.NewProvider(ctx, pc.IssuerURL)
		if err != nil {
			logger.Error("Failed to create OIDC provider", "id", pc.Id, "error", err)
			return nil, fmt.Errorf("oidc provider %s: %w", pc.Id, err)
		}
		providers[pc.Id] = &oidcProvider{
			name: pc.Name,
			oauth2: &oauth2.Config{
				ClientID:     pc.ClientID,
				ClientSecret: pc.ClientSecret,
				Endpoint:     prov.Endpoint(),
				RedirectURL:  pc.RedirectURL,
				Scopes:       pc.Scopes,
			},
			oidcProv:   prov,
			idVerifier: prov.Verifier(&oidc.Config{ClientID: pc.ClientID}),
			states:     newLoginStates(),
		}
		logger.Info("OIDC provider configured", "id", pc.Id, "name", pc.Name)
	}
	return providers, nil
}

// newSessionCodec returns a cookie codec with keys generated for this
// process. Sessions do not survive a restart.
func newSessionCodec() (*securecookie.SecureCookie, error) {
	hashKey := securecookie.GenerateRandomKey(64)
	blockKey := securecookie.GenerateRandomKey(32)
	if hashKey == nil || blockKey == nil {
		return nil, errors.New("generate session cookie keys")
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(sessionMaxAge.Seconds()))
	return codec, nil
}

// providerToken joins a provider id and its ID token as "provider:jwt", the
// form used in session cookies and bearer headers.
func providerToken(providerID, idToken string) string {
	return providerID + ":" + idToken
}

func splitProviderToken(token string) (providerID, idToken string, err error) {
	providerID, idToken, ok := strings.Cut(token, ":")
	switch {
	case !ok:
		return "", "", errors.New("invalid token format: expected 'provider:jwt'")
	case providerID == "":
		return "", "", errors.New("empty provider id")
	case idToken == "":
		return "", "", errors.New("empty id token")
	}
	return providerID, idToken, nil
}

func (s *Server) writeSession(w http.ResponseWriter, providerID, idToken string) error {
	val, err := s.sessionCookie.Encode(sessionCookieName, providerToken(providerID, idToken))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionMaxAge.Seconds()),
	})
	return nil
}

// readSession decodes the session cookie into its provider id and ID token.
func (s *Server) readSession(r *http.Request) (providerID, idToken string, err error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", "", err
	}
	var token string
	if err := s.sessionCookie.Decode(sessionCookieName, c.Value, &token); err != nil {
		return "", "", fmt.Errorf("decode session: %w", err)
	}
	return splitProviderToken(token)
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
