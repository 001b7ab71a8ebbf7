package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/etnz/tradesim"
	"github.com/go-chi/jwtauth"
)

// CookieName is the cookie carrying the session token, as read by
// jwtauth.Verifier.
const CookieName = "jwt"

// now is the clock of the package.
var now = time.Now

// Tokens issues and verifies session tokens.
type Tokens struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
}

// NewTokens returns HS256 tokens signed with secret, valid for ttl.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	return &Tokens{ja: jwtauth.New("HS256", []byte(secret), nil), ttl: ttl}, nil
}

// JWTAuth returns the underlying authenticator for the jwtauth middlewares.
func (t *Tokens) JWTAuth() *jwtauth.JWTAuth { return t.ja }

// TTL returns the validity of issued tokens.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token binding the session sid to the identity.
func (t *Tokens) Issue(sid string, id tradesim.Identity) (string, error) {
	at := now()
	claims := map[string]interface{}{
		"sid":      sid,
		"sub":      id.ID,
		"name":     id.Name,
		"provider": string(id.Provider),
		"iat":      at.Unix(),
	}
	if t.ttl > 0 {
		claims["exp"] = at.Add(t.ttl).Unix()
	}
	_, s, err := t.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("cannot sign session token: %w", err)
	}
	return s, nil
}

// Cookie returns the cookie carrying token.
func (t *Tokens) Cookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if t.ttl > 0 {
		c.MaxAge = int(t.ttl / time.Second)
	}
	return c
}

// ExpiredCookie returns a cookie that clears the session token.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true}
}

// SessionID returns the session id of a token verified by jwtauth.Verifier.
func SessionID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", err
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errors.New("session token without session id")
	}
	return sid, nil
}

// Verify parses a token string and returns its session id.
func (t *Tokens) Verify(token string) (string, error) {
	tok, err := jwtauth.VerifyToken(t.ja, token)
	if err != nil {
		return "", err
	}
	sid, ok := tok.Get("sid")
	if !ok {
		return "", errors.New("session token without session id")
	}
	s, _ := sid.(string)
	return s, nil
}
