// Package oauth2 contains the OAuth2 based login strategies (GitHub and Google OpenID-Connect).
//
// Each strategy has a BeginAuth handler that redirects to the provider and a
// CompleteAuth handler for the provider's callback. A successful callback calls
// HandleUser with the provider's user info; failures redirect to AuthFailureUrl.
package oauth2

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

type BaseOAuth2 struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string
	HandleUser   HandleUserFunc

	// Where failed callbacks are redirected. Defaults to "/login"
	AuthFailureUrl string

	// Used for the code exchange and user info requests. Defaults to http.DefaultClient
	HTTPClient *http.Client

	oauthConfig     oauth2.Config
	authCodeOptions []oauth2.AuthCodeOption
}

func NewBaseOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *BaseOAuth2 {
	return &BaseOAuth2{
		ClientId:       clientId,
		ClientSecret:   clientSecret,
		CallbackURL:    callbackUrl,
		HandleUser:     handleUser,
		AuthFailureUrl: "/login",
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
}

// SetEndpoint overrides the provider endpoint, e.g. to point at a test server.
func (b *BaseOAuth2) SetEndpoint(endpoint oauth2.Endpoint) {
	b.oauthConfig.Endpoint = endpoint
}

// BeginAuth redirects to the provider's consent page.
func (b *BaseOAuth2) BeginAuth(w http.ResponseWriter, r *http.Request) {
	OauthRedirector(&b.oauthConfig, b.authCodeOptions...)(w, r)
}

// ExchangeContext returns a context that makes the oauth2 library use HTTPClient.
func (b *BaseOAuth2) ExchangeContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, b.getHTTPClient())
}

func (b *BaseOAuth2) getHTTPClient() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}
