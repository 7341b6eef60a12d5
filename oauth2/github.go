package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GithubUserAgent is sent with user info requests, GitHub rejects requests without one.
const GithubUserAgent = "agora server"

type GithubOAuth2 struct {
	*BaseOAuth2

	// UserInfoURL is the URL to fetch user info from. Defaults to GitHub's API.
	// Can be overridden for testing.
	UserInfoURL string
}

func NewGithubOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *GithubOAuth2 {
	out := GithubOAuth2{
		BaseOAuth2:  NewBaseOAuth2(clientId, clientSecret, callbackUrl, handleUser),
		UserInfoURL: "https://api.github.com/user",
	}
	out.BaseOAuth2.oauthConfig.Endpoint = github.Endpoint
	out.BaseOAuth2.oauthConfig.Scopes = []string{
		"read:user", "user:email",
	}
	return &out
}

func (g *GithubOAuth2) Name() string { return "github" }

// CompleteAuth handles GitHub's redirect back to us.
func (g *GithubOAuth2) CompleteAuth(w http.ResponseWriter, r *http.Request) {
	if err := checkOauthState("github", w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token, err := g.oauthConfig.Exchange(g.ExchangeContext(r.Context()), r.FormValue("code"))
	var userInfo map[string]any
	if err != nil {
		slog.Info("Invalid code exchange", "err", err)
	} else {
		userInfo, err = g.getUserData(r, token)
		if err == nil {
			g.HandleUser("oauth", "github", token, userInfo, w, r)
			return
		}
		slog.Info("error validating tokens", "err", err)
	}
	http.Redirect(w, r, g.AuthFailureUrl, http.StatusFound)
}

func (g *GithubOAuth2) getUserData(r *http.Request, token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// token goes into the header, never into the query
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", GithubUserAgent)

	response, err := g.getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from github: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info returned status %d", response.StatusCode)
	}

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if userInfo["id"] == nil {
		return nil, fmt.Errorf("github user info has no id")
	}
	return userInfo, nil
}
