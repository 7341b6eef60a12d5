package agoraauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	oa2 "github.com/softwerkskammer/agoraauth/oauth2"
	"github.com/softwerkskammer/agoraauth/openid"
)

// Session keys written by the router
const (
	SessionKeyAuthenticationID = "authenticationId"
	SessionKeyMemberID         = "memberId"
	SessionKeyReturnTo         = "returnTo"
)

// Strategy is a login method with a start route and a callback route.
type Strategy interface {
	Name() string
	BeginAuth(w http.ResponseWriter, r *http.Request)
	CompleteAuth(w http.ResponseWriter, r *http.Request)
}

// Dependencies are the collaborators of the router.
type Dependencies struct {
	// Required
	Directory MemberDirectory

	// Required
	Sessions *scs.SessionManager

	// Required when the magic link strategy is enabled
	Mailer MagicLinkSender

	// Defaults to NewCreatePrincipalFunc(Directory)
	CreatePrincipal CreatePrincipalFunc

	// Used by the OAuth2 strategies, defaults to http.DefaultClient
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Auth owns the authentication routes of the application.
type Auth struct {
	Config          Config
	Sessions        *scs.SessionManager
	Directory       MemberDirectory
	CreatePrincipal CreatePrincipalFunc
	Logger          *slog.Logger

	// nil when the strategy is disabled
	MagicLink *MagicLinkAuth
	Local     *LocalAuth

	router     *mux.Router
	strategies []Strategy
}

// NewRouter registers every strategy enabled in cfg.
func NewRouter(cfg Config, deps Dependencies) (*Auth, error) {
	if deps.Directory == nil {
		return nil, errors.New("agoraauth: member directory required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("agoraauth: session manager required")
	}
	cfg = cfg.EnsureDefaults()

	a := &Auth{
		Config:          cfg,
		Sessions:        deps.Sessions,
		Directory:       deps.Directory,
		CreatePrincipal: deps.CreatePrincipal,
		Logger:          deps.Logger,
		router:          mux.NewRouter(),
	}
	if a.CreatePrincipal == nil {
		a.CreatePrincipal = NewCreatePrincipalFunc(deps.Directory)
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}

	a.router.HandleFunc("/logout", a.onLogout).Methods(http.MethodGet)

	if cfg.OpenIDEnabled {
		o := openid.NewOpenID(cfg.CallbackURL("openid"), cfg.PublicURLPrefix, a.handleOpenIDUser)
		o.AuthFailureUrl = cfg.LoginURL
		a.AddStrategy(o)
	}
	if cfg.GithubEnabled() {
		gh := oa2.NewGithubOAuth2(cfg.GithubClientID, cfg.GithubClientSecret, cfg.CallbackURL("github"), a.handleOAuthUser)
		gh.AuthFailureUrl = cfg.LoginURL
		gh.HTTPClient = deps.HTTPClient
		a.AddStrategy(gh)
	}
	if cfg.GoogleEnabled() {
		g := oa2.NewGoogleOAuth2(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CallbackURL("openidconnect"), cfg.PublicURLPrefix, a.handleOAuthUser)
		g.AuthFailureUrl = cfg.LoginURL
		g.HTTPClient = deps.HTTPClient
		a.AddStrategy(g)
	}
	if cfg.MagicLinkEnabled() {
		if deps.Mailer == nil {
			return nil, errors.New("agoraauth: magic link enabled without mailer")
		}
		tokens := NewMagicTokens(cfg.MagicLinkSecret)
		tokens.SigningAlg = cfg.MagicLinkSigningAlg
		if _, err := tokens.method(); err != nil {
			return nil, fmt.Errorf("agoraauth: %w", err)
		}
		a.MagicLink = &MagicLinkAuth{
			Directory:            deps.Directory,
			Mailer:               deps.Mailer,
			Tokens:               tokens,
			CreatePrincipal:      a.CreatePrincipal,
			HandleUser:           a.LogIn,
			Sessions:             deps.Sessions,
			TokenProblemRedirect: cfg.TokenProblemRedirect,
			Logger:               a.Logger,
		}
		a.AddStrategy(a.MagicLink)
		a.router.HandleFunc("/magiclinkmail", a.MagicLink.HandleMagicLinkMail).Methods(http.MethodGet)
	}

	a.Local = &LocalAuth{
		Directory:  deps.Directory,
		HandleUser: a.LogIn,
		Sessions:   deps.Sessions,
		LoginURL:   cfg.LoginURL,
		Logger:     a.Logger,
	}
	a.router.Handle("/login", a.Local).Methods(http.MethodPost)

	return a, nil
}

// AddStrategy registers GET /<name> and GET /<name>/callback.
func (a *Auth) AddStrategy(s Strategy) *Auth {
	name := s.Name()
	a.router.Handle("/"+name, a.setReturnOnSuccess(http.HandlerFunc(s.BeginAuth))).Methods(http.MethodGet)
	a.router.HandleFunc("/"+name+"/callback", s.CompleteAuth).Methods(http.MethodGet)
	a.strategies = append(a.strategies, s)
	a.Logger.Info("registered login strategy", "strategy", name)
	return a
}

// Strategies lists the names of the registered strategies in registration order.
func (a *Auth) Strategies() []string {
	out := make([]string, 0, len(a.strategies))
	for _, s := range a.strategies {
		out = append(out, s.Name())
	}
	return out
}

func (a *Auth) Handler() http.Handler {
	return a.router
}

// MountOn registers the auth routes under Config.MountPath.
func (a *Auth) MountOn(m *http.ServeMux) {
	prefix := a.Config.MountPath
	m.Handle(prefix+"/", http.StripPrefix(prefix, a.router))
}

// Middleware returns a session middleware matching this router's configuration.
func (a *Auth) Middleware() *Middleware {
	return &Middleware{Sessions: a.Sessions, LoginURL: a.Config.LoginURL}
}

// setReturnOnSuccess remembers where to go after the login and stores the login choice.
func (a *Auth) setReturnOnSuccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !a.Sessions.Exists(ctx, SessionKeyReturnTo) {
			a.Sessions.Put(ctx, SessionKeyReturnTo, safeReturnTo(r.URL.Query().Get("returnTo")))
		}
		requestURI := r.URL.RequestURI()
		if decoded, err := url.PathUnescape(requestURI); err == nil {
			requestURI = decoded
		}
		SetLoginChoiceCookie(w, LoginChoiceFor(requestURI))
		next.ServeHTTP(w, r)
	})
}

// LogIn stores the principal in a renewed session and redirects to the remembered location.
func (a *Auth) LogIn(principal *Principal, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := a.Sessions.RenewToken(ctx); err != nil {
		a.Logger.Error("renewing session token", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	a.Sessions.Put(ctx, SessionKeyAuthenticationID, principal.AuthenticationID)
	if principal.Member != nil {
		a.Sessions.Put(ctx, SessionKeyMemberID, principal.Member.ID)
	} else {
		a.Sessions.Remove(ctx, SessionKeyMemberID)
	}
	a.Logger.Info("logged in", "provider", principal.Provider, "authenticationId", principal.AuthenticationID, "new", principal.IsNewMember())

	returnTo := a.Sessions.PopString(ctx, SessionKeyReturnTo)
	if returnTo == "" {
		returnTo = "/"
	}
	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (a *Auth) onLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a.Sessions.Remove(ctx, SessionKeyAuthenticationID)
	a.Sessions.Remove(ctx, SessionKeyMemberID)
	if err := a.Sessions.RenewToken(ctx); err != nil {
		a.Logger.Warn("error renewing session on logout", "err", err)
	}
	http.Redirect(w, r, a.Config.LogoutRedirect, http.StatusFound)
}

func (a *Auth) handleOAuthUser(authtype, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	authenticationID := ProviderAuthenticationID(provider, userInfo)
	if authenticationID == "" {
		a.Logger.Warn("provider returned no usable id", "provider", provider)
		http.Redirect(w, r, a.Config.LoginURL, http.StatusFound)
		return
	}
	a.completeLogin(r.Context(), provider, authenticationID, userInfo, w, r)
}

func (a *Auth) handleOpenIDUser(claimedID string, profile map[string]any, w http.ResponseWriter, r *http.Request) {
	a.completeLogin(r.Context(), "openid", claimedID, profile, w, r)
}

func (a *Auth) completeLogin(ctx context.Context, provider, authenticationID string, profile map[string]any, w http.ResponseWriter, r *http.Request) {
	principal, err := a.CreatePrincipal(ctx, provider, authenticationID, profile)
	if err != nil {
		a.Logger.Error("creating principal", "provider", provider, "err", err)
		http.Redirect(w, r, a.Config.LoginURL, http.StatusFound)
		return
	}
	a.LogIn(principal, w, r)
}

// ProviderAuthenticationID derives the authentication id from an OAuth2 provider's user info.
func ProviderAuthenticationID(provider string, userInfo map[string]any) string {
	switch provider {
	case "github":
		if id := idString(userInfo["id"]); id != "" {
			return "github:" + id
		}
	case "google":
		if sub := idString(userInfo["sub"]); sub != "" {
			return "Google:" + sub
		}
	}
	return ""
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	}
	return ""
}

// safeReturnTo only accepts local absolute paths.
func safeReturnTo(returnTo string) string {
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") || strings.HasPrefix(returnTo, "/\\") {
		return "/"
	}
	return returnTo
}
