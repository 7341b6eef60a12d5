package agoraauth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	LoginChoiceCookieName = "loginChoice"
	LoginChoiceMaxAge     = 365 * 24 * time.Hour

	openIDIdentifierParam = "openid_identifier="
	stackExchangeOpenID   = "https://openid.stackexchange.com"
)

// LoginChoice remembers the last used authentication method so the login page can preselect it.
// It is a UI hint only and must never be used for authorization.
// At most one field is set; the zero value means "none determined".
type LoginChoice struct {
	OIDC          bool   `json:"oidc,omitempty"`
	GitHub        bool   `json:"gh,omitempty"`
	StackExchange bool   `json:"se,omitempty"`
	Provider      string `json:"provider,omitempty"`
	UserPass      bool   `json:"userPass,omitempty"`
}

func (c LoginChoice) IsZero() bool {
	return c == LoginChoice{}
}

// LoginChoiceFor classifies a decoded request URI (relative to the auth router) into a login choice.
func LoginChoiceFor(requestURI string) LoginChoice {
	if strings.HasPrefix(requestURI, "/openidconnect?") {
		return LoginChoice{OIDC: true}
	}
	if strings.HasPrefix(requestURI, "/github?") {
		return LoginChoice{GitHub: true}
	}
	if !strings.HasPrefix(requestURI, "/openid?") {
		return LoginChoice{}
	}
	if strings.Contains(requestURI, openIDIdentifierParam+stackExchangeOpenID) {
		return LoginChoice{StackExchange: true}
	}
	start := strings.Index(requestURI, openIDIdentifierParam)
	if start < 0 {
		return LoginChoice{}
	}
	provider := requestURI[start+len(openIDIdentifierParam):]
	if end := strings.Index(provider, "&"); end >= 0 {
		provider = provider[:end]
	}
	return LoginChoice{Provider: provider}
}

// SetLoginChoiceCookie overwrites the login choice cookie.
// The value uses the "j:" JSON prefix understood by Express' cookie-parser.
//
// TODO: set Secure once every deployment is served over https only.
func SetLoginChoiceCookie(w http.ResponseWriter, choice LoginChoice) {
	data, _ := json.Marshal(choice)
	http.SetCookie(w, &http.Cookie{
		Name:     LoginChoiceCookieName,
		Value:    strings.ReplaceAll(url.QueryEscape("j:"+string(data)), "+", "%20"),
		Path:     "/",
		MaxAge:   int(LoginChoiceMaxAge / time.Second),
		Expires:  time.Now().Add(LoginChoiceMaxAge),
		HttpOnly: true,
	})
}

// ReadLoginChoice returns the stored login choice, or the zero value when absent or unreadable.
func ReadLoginChoice(r *http.Request) LoginChoice {
	var out LoginChoice
	cookie, err := r.Cookie(LoginChoiceCookieName)
	if err != nil {
		return out
	}
	raw, err := url.PathUnescape(cookie.Value)
	if err != nil {
		return out
	}
	raw, ok := strings.CutPrefix(raw, "j:")
	if !ok {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return LoginChoice{}
	}
	return out
}
