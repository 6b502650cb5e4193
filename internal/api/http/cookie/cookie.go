// Package cookie reads and writes the session cookie.
package cookie

import (
	"net/http"
	"time"
)

// Config describes the session cookie.
type Config struct {
	Name string
	TTL  time.Duration
	// Secure forces the Secure attribute even on plain HTTP requests.
	Secure bool
}

// Token returns the session token carried by r, or "".
func (c Config) Token(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Set writes token with a lifetime of TTL from now. Calling it again on
// every authenticated request keeps the browser copy alive as long as the
// server-side session.
func (c Config) Set(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, c.build(r, token, int(c.TTL.Seconds())))
}

// Clear tells the browser to drop the cookie.
func (c Config) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, c.build(r, "", -1))
}

func (c Config) build(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
