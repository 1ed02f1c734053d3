package middleware

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// sessionPayload is what the session cookie actually carries: exactly {jwt}.
type sessionPayload struct {
	JWT string `json:"jwt"`
}

const sessionMaxAge = 7 * 24 * time.Hour

// Session encodes and decodes the session cookie. The cookie value is the
// base64url JSON {"jwt": "<token>"}; opaque to the client, HttpOnly, and
// cleared entirely on signout.
type Session struct {
	CookieName string
	Secure     bool
}

func NewSession(cookieName string, secure bool) *Session {
	return &Session{CookieName: cookieName, Secure: secure}
}

// ReadToken extracts the signed token from the request's session cookie.
func (s *Session) ReadToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return "", err
	}

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return "", err
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	if payload.JWT == "" {
		return "", errors.New("session cookie has no token")
	}
	return payload.JWT, nil
}

// SetToken writes the session cookie for a freshly issued token.
func (s *Session) SetToken(w http.ResponseWriter, token string) {
	raw, _ := json.Marshal(sessionPayload{JWT: token})
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear removes the session cookie.
func (s *Session) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
