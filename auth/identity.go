// Package auth turns login requests into identities and binds them to
// sandbox sessions with signed tokens.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tradesim"
)

// ErrInvalidCredential is returned when a login credential cannot be read.
var ErrInvalidCredential = errors.New("invalid credential")

const (
	DefaultName  = "Demo Trader"
	DefaultEmail = "trader@example.com"
)

// Local returns the identity of a local (demo) login. An empty name falls
// back to DefaultName.
func Local(name string) tradesim.Identity {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return tradesim.Identity{
		ID:       tradesim.NewID(now()),
		Name:     name,
		Email:    DefaultEmail,
		Provider: tradesim.LocalProvider,
	}
}

// Google extracts the identity from a Google ID token (a JWT).
//
// The token signature is not verified. If audience is not empty the token
// must have been issued for it.
func Google(credential, audience string) (tradesim.Identity, error) {
	claims, err := decodePayload(credential)
	if err != nil {
		return tradesim.Identity{}, err
	}
	sub := claim(claims, "$.sub")
	if sub == "" {
		return tradesim.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	if audience != "" && claim(claims, "$.aud") != audience {
		return tradesim.Identity{}, fmt.Errorf("%w: issued for another audience", ErrInvalidCredential)
	}
	id := tradesim.Identity{
		ID:       sub,
		Name:     claim(claims, "$.name"),
		Email:    claim(claims, "$.email"),
		Picture:  claim(claims, "$.picture"),
		Provider: tradesim.GoogleProvider,
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	if id.Name == "" {
		id.Name = DefaultName
	}
	return id, nil
}

// decodePayload returns the decoded payload section of a JWT.
func decodePayload(token string) (any, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: not a JWT", ErrInvalidCredential)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidCredential, err)
	}
	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidCredential, err)
	}
	if _, ok := jobj.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidCredential)
	}
	return jobj, nil
}

// claim returns the string at path, empty if absent or not a string.
func claim(jobj any, path string) string {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return ""
	}
	// keep the first one if jsonpath answers a list
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	s, _ := jval.(string)
	return s
}
