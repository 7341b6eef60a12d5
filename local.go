package agoraauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

// NewMemberPassword is the password value that starts a registration instead of a login.
const NewMemberPassword = "NEW"

// UserPassPrefix prefixes authentication ids created by a password registration.
const UserPassPrefix = "UserPass"

// Allows email/password based authentication against the member directory
type LocalAuth struct {
	Directory MemberDirectory

	// Handler called after successful authentication
	HandleUser HandleUserFunc

	// Used to report failures on the login page
	Sessions *scs.SessionManager

	// Form field names, default "email" and "password"
	EmailField    string
	PasswordField string

	// Where failed logins are redirected. Defaults to "/login"
	LoginURL string

	Logger *slog.Logger
}

// ServeHTTP handles login requests
func (a *LocalAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	email, password, err := a.parseLoginForm(r)
	if err != nil {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, err.Error(), a.getEmailField()), w, r)
		return
	}

	principal, authErr, err := a.Authenticate(r.Context(), email, password)
	if err != nil {
		a.logger().Error("login error", "email", email, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if principal == nil {
		a.handleLoginError(authErr, w, r)
		return
	}

	SetLoginChoiceCookie(w, LoginChoice{UserPass: true})
	a.HandleUser(principal, w, r)
}

// Authenticate checks email and password.
//
// The password NewMemberPassword starts a registration for an unknown email.
// A nil principal with a nil error means the login was refused; authErr then
// explains why, or is nil when no reason should be shown.
func (a *LocalAuth) Authenticate(ctx context.Context, email, password string) (principal *Principal, authErr *AuthError, err error) {
	isNewUser := password == NewMemberPassword
	member, err := a.Directory.FindMemberByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrMemberNotFound) {
			return nil, nil, transportError("find member by email", err)
		}
		member, err = nil, nil
	}

	if isNewUser {
		a.logger().Info("new login", "email", email)
		if member != nil {
			a.logger().Warn("member with this email address already exists", "email", email)
			return nil, NewAuthError(ErrCodeMemberExists, "Member already exists", a.getEmailField()), nil
		}
		return &Principal{
			Provider:         "local",
			AuthenticationID: UserPassPrefix + email,
			Profile: map[string]any{
				"emails": []map[string]any{{"value": email}},
			},
		}, nil, nil
	}

	a.logger().Info("login", "email", email)
	if member == nil {
		a.logger().Warn("member with this email address does not exist", "email", email)
		return nil, NewAuthError(ErrCodeMemberNotExists, "Member does not exist", a.getEmailField()), nil
	}
	if member.PasswordMatches(password) {
		return &Principal{Provider: "local", AuthenticationID: member.ID, Member: member}, nil, nil
	}
	return nil, nil, nil
}

func (a *LocalAuth) parseLoginForm(r *http.Request) (email, password string, err error) {
	contentType := r.Header.Get("Content-Type")
	emailField := a.getEmailField()
	passwordField := a.getPasswordField()

	if strings.HasPrefix(contentType, "application/json") {
		var data map[string]any
		if err = json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return "", "", fmt.Errorf("invalid post body")
		}
		if e, ok := data[emailField].(string); ok {
			email = e
		}
		if p, ok := data[passwordField].(string); ok {
			password = p
		}
	} else {
		if err = r.ParseForm(); err != nil {
			return "", "", fmt.Errorf("error parsing form")
		}
		email = r.FormValue(emailField)
		password = r.FormValue(passwordField)
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password required")
	}
	return email, password, nil
}

func (a *LocalAuth) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *LocalAuth) getEmailField() string {
	if a.EmailField != "" {
		return a.EmailField
	}
	return "email"
}

func (a *LocalAuth) getPasswordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}

func (a *LocalAuth) getLoginURL() string {
	if a.LoginURL != "" {
		return a.LoginURL
	}
	return "/login"
}

// handleLoginError shows err (if any) on the login page
func (a *LocalAuth) handleLoginError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if err != nil && a.Sessions != nil {
		ErrorMessage(ErrCodeAuthenticationFail, err.Code).PutIntoSession(r.Context(), a.Sessions)
	}
	http.Redirect(w, r, a.getLoginURL(), http.StatusFound)
}
