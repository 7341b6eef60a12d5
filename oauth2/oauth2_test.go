package oauth2

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type handledUser struct {
	authtype string
	provider string
	token    *oauth2.Token
	userInfo map[string]any
}

// newProvider fakes the token endpoint plus the GitHub and Google user info APIs
func newProvider(t *testing.T, githubUser, googleUser map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" || r.Header.Get("User-Agent") != GithubUserAgent {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(githubUser)
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(googleUser)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testEndpoint(server *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   server.URL + "/authorize",
		TokenURL:  server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func callback(path, state, cookieState, code string) *http.Request {
	q := url.Values{"state": {state}, "code": {code}}
	r := httptest.NewRequest(http.MethodGet, path+"?"+q.Encode(), nil)
	if cookieState != "" {
		r.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: cookieState})
	}
	return r
}

func newGithub(t *testing.T, server *httptest.Server, handled *[]handledUser) *GithubOAuth2 {
	gh := NewGithubOAuth2("client", "secret", "http://localhost/auth/github/callback",
		func(authtype, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
			*handled = append(*handled, handledUser{authtype, provider, token, userInfo})
			w.WriteHeader(http.StatusNoContent)
		})
	gh.SetEndpoint(testEndpoint(server))
	gh.UserInfoURL = server.URL + "/user"
	gh.HTTPClient = server.Client()
	return gh
}

func TestBeginAuthSetsState(t *testing.T) {
	gh := NewGithubOAuth2("client", "secret", "http://localhost/auth/github/callback", nil)
	w := httptest.NewRecorder()
	gh.BeginAuth(w, httptest.NewRequest(http.MethodGet, "/github", nil))

	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookie {
			state = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	require.NotEmpty(t, state)
	assert.Equal(t, state, location.Query().Get("state"))
	assert.Equal(t, "read:user user:email", location.Query().Get("scope"))
}

func TestGoogleBeginAuthSendsRealm(t *testing.T) {
	g := NewGoogleOAuth2("client", "secret", "http://localhost/auth/openidconnect/callback", "https://www.softwerkskammer.org", nil)
	w := httptest.NewRecorder()
	g.BeginAuth(w, httptest.NewRequest(http.MethodGet, "/openidconnect", nil))

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", location.Host)
	assert.Equal(t, "https://www.softwerkskammer.org", location.Query().Get("openid.realm"))
	assert.Equal(t, "openid email profile", location.Query().Get("scope"))
}

func TestGithubCompleteAuth(t *testing.T) {
	server := newProvider(t, map[string]any{"id": 4711, "login": "alice"}, nil)
	var handled []handledUser
	gh := newGithub(t, server, &handled)

	w := httptest.NewRecorder()
	gh.CompleteAuth(w, callback("/github/callback", "s1", "s1", "good-code"))

	require.Len(t, handled, 1)
	assert.Equal(t, "oauth", handled[0].authtype)
	assert.Equal(t, "github", handled[0].provider)
	assert.Equal(t, "access-123", handled[0].token.AccessToken)
	assert.Equal(t, float64(4711), handled[0].userInfo["id"])
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGithubCompleteAuthFailures(t *testing.T) {
	tests := []struct {
		name       string
		user       map[string]any
		request    *http.Request
		wantStatus int
	}{
		{"state mismatch", map[string]any{"id": 1}, callback("/github/callback", "s1", "other", "good-code"), http.StatusBadRequest},
		{"state cookie missing", map[string]any{"id": 1}, callback("/github/callback", "s1", "", "good-code"), http.StatusBadRequest},
		{"bad code", map[string]any{"id": 1}, callback("/github/callback", "s1", "s1", "bad-code"), http.StatusFound},
		{"user without id", map[string]any{"login": "alice"}, callback("/github/callback", "s1", "s1", "good-code"), http.StatusFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newProvider(t, tt.user, nil)
			var handled []handledUser
			gh := newGithub(t, server, &handled)

			w := httptest.NewRecorder()
			gh.CompleteAuth(w, tt.request)

			assert.Empty(t, handled)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/login", w.Header().Get("Location"))
			}
		})
	}
}

func TestGoogleCompleteAuth(t *testing.T) {
	server := newProvider(t, nil, map[string]any{
		"id":             "0815",
		"email":          "alice@example.org",
		"verified_email": true,
		"name":           "Alice",
	})
	var handled []handledUser
	g := NewGoogleOAuth2("client", "secret", "http://localhost/auth/openidconnect/callback", "",
		func(authtype, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
			handled = append(handled, handledUser{authtype, provider, token, userInfo})
		})
	g.SetEndpoint(testEndpoint(server))
	g.APIEndpoint = server.URL + "/"
	g.HTTPClient = server.Client()

	g.CompleteAuth(httptest.NewRecorder(), callback("/openidconnect/callback", "s1", "s1", "good-code"))

	require.Len(t, handled, 1)
	assert.Equal(t, "google", handled[0].provider)
	assert.Equal(t, "0815", handled[0].userInfo["sub"])
	assert.Equal(t, "alice@example.org", handled[0].userInfo["email"])
	assert.Equal(t, true, handled[0].userInfo["email_verified"])
}
