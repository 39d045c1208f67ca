// ABOUTME: Explicit provider session built on an oauth2 token source.
// ABOUTME: Loads exported tokens and enforces expiry instead of holding global state.
package garmin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var (
	// ErrNoSession means no provider credentials were configured.
	ErrNoSession = errors.New("no provider session configured")
	// ErrSessionExpired means the access token expired and cannot be refreshed.
	ErrSessionExpired = errors.New("provider session expired")
)

// exportedToken is the token JSON written by the provider's login tooling.
type exportedToken struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Scope        string `json:"scope"`
}

// Session is a capability to call the provider. It is passed explicitly to the client.
type Session struct {
	src oauth2.TokenSource
}

// NewSession wraps tok. When refresh is nil an expired token fails with ErrSessionExpired.
func NewSession(tok *oauth2.Token, refresh oauth2.TokenSource) *Session {
	if refresh == nil {
		refresh = expiredSource{}
	}
	return &Session{src: oauth2.ReuseTokenSource(tok, refresh)}
}

// ParseSession builds a session from exported tokens. It accepts a single token object,
// or a base64 or plain JSON array whose last object element is the OAuth2 token.
func ParseSession(blob []byte) (*Session, error) {
	raw := strings.TrimSpace(string(blob))
	if raw == "" {
		return nil, ErrNoSession
	}
	if !strings.HasPrefix(raw, "{") && !strings.HasPrefix(raw, "[") {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode session tokens: %w", err)
		}
		raw = strings.TrimSpace(string(decoded))
	}

	var exported exportedToken
	if strings.HasPrefix(raw, "[") {
		var parts []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &parts); err != nil {
			return nil, fmt.Errorf("parse session tokens: %w", err)
		}
		for i := len(parts) - 1; i >= 0; i-- {
			var candidate exportedToken
			if json.Unmarshal(parts[i], &candidate) == nil && candidate.AccessToken != "" {
				exported = candidate
				break
			}
		}
	} else if err := json.Unmarshal([]byte(raw), &exported); err != nil {
		return nil, fmt.Errorf("parse session tokens: %w", err)
	}

	if exported.AccessToken == "" {
		return nil, fmt.Errorf("session tokens have no access token: %w", ErrNoSession)
	}

	tok := &oauth2.Token{
		AccessToken:  exported.AccessToken,
		TokenType:    exported.TokenType,
		RefreshToken: exported.RefreshToken,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if exported.ExpiresAt > 0 {
		tok.Expiry = time.Unix(exported.ExpiresAt, 0)
	}
	return NewSession(tok, nil), nil
}

// Token returns a valid access token or ErrSessionExpired.
func (s *Session) Token() (*oauth2.Token, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	return s.src.Token()
}

// Valid reports whether the session currently yields a usable token.
func (s *Session) Valid() bool {
	tok, err := s.Token()
	return err == nil && tok.Valid()
}

// HTTPClient returns a client that authorizes every request with the session token.
func (s *Session) HTTPClient(ctx context.Context, base *http.Client) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, s.src)
}

type expiredSource struct{}

func (expiredSource) Token() (*oauth2.Token, error) {
	return nil, ErrSessionExpired
}
