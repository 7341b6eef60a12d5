package agoraauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
)

type principalKey struct{}

type Middleware struct {
	Sessions *scs.SessionManager

	// Where EnsureLoggedIn sends anonymous requests. Empty means answer 401
	LoginURL string

	// Query parameter carrying the original URL, defaults to "returnTo"
	ReturnToParam string
}

func (m *Middleware) returnToParam() string {
	if m.ReturnToParam != "" {
		return m.ReturnToParam
	}
	return "returnTo"
}

// LoggedInAuthenticationID returns the authentication id of the logged in user, or "".
func (m *Middleware) LoggedInAuthenticationID(r *http.Request) string {
	if v, ok := r.Context().Value(principalKey{}).(string); ok && v != "" {
		return v
	}
	return m.Sessions.GetString(r.Context(), SessionKeyAuthenticationID)
}

/**
 * Loads the logged in authentication id into the request context.
 *
 * Note this does not perform any redirects if nobody is logged in.
 * Use EnsureLoggedIn for that.
 */
func (m *Middleware) ExtractPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withAuthenticationID(r, m.LoggedInAuthenticationID(r)))
	})
}

func (m *Middleware) EnsureLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticationID := m.LoggedInAuthenticationID(r)
		if authenticationID != "" {
			next.ServeHTTP(w, withAuthenticationID(r, authenticationID))
			return
		}
		if m.LoginURL == "" {
			http.Error(w, "Login Required", http.StatusUnauthorized)
			return
		}
		encodedUrl := strings.ReplaceAll(url.QueryEscape(r.URL.RequestURI()), "+", "%20")
		http.Redirect(w, r, fmt.Sprintf("%s?%s=%s", m.LoginURL, m.returnToParam(), encodedUrl), http.StatusFound)
	})
}

// AuthenticationIDFromContext returns what ExtractPrincipal or EnsureLoggedIn stored.
func AuthenticationIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(principalKey{}).(string)
	return v
}

func withAuthenticationID(r *http.Request, authenticationID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey{}, authenticationID))
}
