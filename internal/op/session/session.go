// Package session carries pending authorization state between the
// authorize, login, and consent requests. The state lives in a single
// cookie, sealed with AES-256-GCM so the browser can hold it without
// being able to read or forge it.
package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/openauthlab/opd/pkg/cryptox"
)

const cookieName = "op_session"

// State is everything the provider needs to remember about an
// in-flight authorization request.
type State struct {
	ClientID    string `json:"client_id,omitempty"`
	Scope       string `json:"scope,omitempty"` // space-delimited, as requested
	RedirectURI string `json:"redirect_uri,omitempty"`
	Nonce       string `json:"nonce,omitempty"`
	State       string `json:"state,omitempty"` // client's state param, echoed back

	// Set after a successful login.
	Subject  string `json:"subject,omitempty"`
	AuthTime int64  `json:"auth_time,omitempty"` // epoch seconds
}

// Authorizing reports whether the state carries a live authorization
// request. Login and consent refuse to proceed without one.
func (s State) Authorizing() bool {
	return s.ClientID != "" && s.Scope != ""
}

// Authenticated reports whether the end-user has logged in.
func (s State) Authenticated() bool {
	return s.Subject != ""
}

// Manager seals and unseals State cookies.
type Manager struct {
	key    [32]byte
	secure bool
}

// NewManager derives the sealing key from the configured secret.
// Secure controls the cookie's Secure attribute; leave it off only for
// local plain-HTTP development.
func NewManager(secret string, secure bool) *Manager {
	return &Manager{
		key:    cryptox.DeriveKey([]byte(secret)),
		secure: secure,
	}
}

// Load returns the state sealed into the request's session cookie.
// A missing, malformed, or tampered cookie yields the zero State, the
// same as a browser that has never been here before.
func (m *Manager) Load(r *http.Request) State {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return State{}
	}

	sealed, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return State{}
	}

	plain, err := cryptox.Open(m.key, sealed)
	if err != nil {
		return State{}
	}

	var s State
	if err := json.Unmarshal(plain, &s); err != nil {
		return State{}
	}
	return s
}

// Save seals the state and writes it as the session cookie.
func (m *Manager) Save(w http.ResponseWriter, s State) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return err
	}

	sealed, err := cryptox.Seal(m.key, plain)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie. Every fresh authorize request
// starts by clearing whatever state a previous flow left behind.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
