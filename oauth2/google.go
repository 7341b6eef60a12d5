package oauth2

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleOAuth2 authenticates with Google's OpenID-Connect.
type GoogleOAuth2 struct {
	*BaseOAuth2

	// APIEndpoint overrides the Google API base URL, for tests.
	APIEndpoint string
}

// NewGoogleOAuth2 creates the Google strategy. realm is sent as openid.realm so that
// identities of the old OpenID 2.0 login can be mapped by Google.
func NewGoogleOAuth2(clientId string, clientSecret string, callbackUrl string, realm string, handleUser HandleUserFunc) *GoogleOAuth2 {
	out := GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2(clientId, clientSecret, callbackUrl, handleUser),
	}
	out.BaseOAuth2.oauthConfig.Endpoint = google.Endpoint
	out.BaseOAuth2.oauthConfig.Scopes = []string{"openid", "email", "profile"}
	if realm != "" {
		out.BaseOAuth2.authCodeOptions = append(out.BaseOAuth2.authCodeOptions, oauth2.SetAuthURLParam("openid.realm", realm))
	}
	return &out
}

func (g *GoogleOAuth2) Name() string { return "openidconnect" }

// CompleteAuth handles Google's redirect back to us.
func (g *GoogleOAuth2) CompleteAuth(w http.ResponseWriter, r *http.Request) {
	if err := checkOauthState("google", w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token, err := g.oauthConfig.Exchange(g.ExchangeContext(r.Context()), r.FormValue("code"))
	var userInfo map[string]any
	if err != nil {
		slog.Info("Invalid code exchange", "err", err)
	} else {
		userInfo, err = g.getUserData(r.Context(), token)
		if err == nil {
			g.HandleUser("oauth", "google", token, userInfo, w, r)
			return
		}
		slog.Info("error validating tokens", "err", err)
	}
	http.Redirect(w, r, g.AuthFailureUrl, http.StatusFound)
}

func (g *GoogleOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	client := g.oauthConfig.Client(g.ExchangeContext(ctx), token)
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.APIEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.APIEndpoint))
	}
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed creating google oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	if info.Id == "" {
		return nil, fmt.Errorf("google user info has no id")
	}
	userInfo := map[string]any{
		"sub":         info.Id,
		"email":       info.Email,
		"name":        info.Name,
		"given_name":  info.GivenName,
		"family_name": info.FamilyName,
		"picture":     info.Picture,
	}
	if info.VerifiedEmail != nil {
		userInfo["email_verified"] = *info.VerifiedEmail
	}
	return userInfo, nil
}
