package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"bookgasm/pkg/domain"
)

const (
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	stateTokenTTL     = 10 * time.Minute
	stateIssuer       = "bookgasm"
)

// NewGoogleOAuth builds the Google OAuth2 code-flow config with the
// profile and email scopes.
func NewGoogleOAuth(clientID, clientSecret, callbackURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{"profile", "email"},
		Endpoint:     google.Endpoint,
	}
}

// newStateToken issues a short-lived signed state parameter. The token
// carries no identity; it only proves the redirect originated here.
func newStateToken(secret []byte) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verifyStateToken(token string, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("verify state: %w", err)
	}
	return nil
}

// fetchUserinfo retrieves the identity provider's profile for the
// exchanged token.
func (s *Server) fetchUserinfo(ctx context.Context, token *oauth2.Token) (domain.ExternalProfile, error) {
	client := s.google.Client(ctx, token)
	resp, err := client.Get(s.userinfoURL)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.ExternalProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("read userinfo: %w", err)
	}
	var profile domain.ExternalProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	profile.Raw = raw
	return profile, nil
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.google == nil {
		http.NotFound(w, r)
		return
	}
	state, err := newStateToken(s.stateSecret)
	if err != nil {
		logRequestError(r, "issue oauth state", err)
		renderServerError(w)
		return
	}
	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

// handleGoogleCallback completes the code flow. Any failure sends the
// visitor back to the login page, mirroring a failed local login.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.google == nil {
		http.NotFound(w, r)
		return
	}
	if err := verifyStateToken(r.URL.Query().Get("state"), s.stateSecret); err != nil {
		logRequestError(r, "oauth callback state", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	token, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		logRequestError(r, "oauth code exchange", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	profile, err := s.fetchUserinfo(r.Context(), token)
	if err != nil {
		logRequestError(r, "oauth userinfo", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	user, err := s.app.Federate(profile)
	if err != nil {
		logRequestError(r, "oauth federate", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.startSession(w, user); err != nil {
		logRequestError(r, "oauth session", err)
		renderServerError(w)
		return
	}
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}
