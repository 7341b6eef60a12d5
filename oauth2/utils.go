package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const oauthStateCookie = "oauthstate"

type HandleUserFunc func(authtype string, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

func generateStateOauthCookie(w http.ResponseWriter) string {
	var expiration = time.Now().Add(30 * time.Minute)
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("generating oauth state", "err", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	cookie := http.Cookie{Name: oauthStateCookie, Value: state, Path: "/", Expires: expiration, HttpOnly: true}
	http.SetCookie(w, &cookie)
	return state
}

func OauthRedirector(oauthConfig *oauth2.Config, opts ...oauth2.AuthCodeOption) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		oauthState := generateStateOauthCookie(w)
		u := oauthConfig.AuthCodeURL(oauthState, opts...)
		http.Redirect(w, r, u, http.StatusFound)
	}
}

// checkOauthState compares the state parameter with the state cookie and clears the cookie.
func checkOauthState(provider string, w http.ResponseWriter, r *http.Request) error {
	oauthState, _ := r.Cookie(oauthStateCookie)
	if oauthState == nil {
		return fmt.Errorf("oauth %s state missing", provider)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Path:   "/",
		MaxAge: -1,
	})
	if r.FormValue("state") != oauthState.Value {
		return fmt.Errorf("invalid oauth %s state", provider)
	}
	return nil
}
