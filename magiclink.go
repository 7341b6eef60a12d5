package agoraauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

// HandleUserFunc is called by a strategy once a request is authenticated.
type HandleUserFunc func(principal *Principal, w http.ResponseWriter, r *http.Request)

// IssueOutcome is the user visible result of a magic link request.
type IssueOutcome int

const (
	// IssueFailed goes along with a non nil error
	IssueFailed IssueOutcome = iota
	IssueSuccess
	IssueMemberNotFound
	IssueEmailMissing
)

func (o IssueOutcome) String() string {
	switch o {
	case IssueFailed:
		return "failed"
	case IssueSuccess:
		return "success"
	case IssueMemberNotFound:
		return "member_not_found"
	case IssueEmailMissing:
		return "email_missing"
	}
	return fmt.Sprintf("IssueOutcome(%d)", int(o))
}

// Err maps the refused outcomes to ErrEmailMissing and ErrMemberNotFound.
func (o IssueOutcome) Err() error {
	switch o {
	case IssueEmailMissing:
		return ErrEmailMissing
	case IssueMemberNotFound:
		return ErrMemberNotFound
	}
	return nil
}

// MagicLinkAuth issues magic link tokens by email and logs members in with them.
//
// Tokens are not consumed on use: a token can be used repeatedly until it expires,
// and issuing a new token does not invalidate older ones.
type MagicLinkAuth struct {
	Directory MemberDirectory
	Mailer    MagicLinkSender
	Tokens    *MagicTokens

	// Resolves the authentication id of a verified token. Defaults to NewCreatePrincipalFunc(Directory)
	CreatePrincipal CreatePrincipalFunc

	// Called after a token was verified
	HandleUser HandleUserFunc

	// Used for status messages, may be nil in non HTTP usage
	Sessions *scs.SessionManager

	// Query parameter names, default "token" and "magic_link_email"
	TokenParam string
	EmailParam string

	// Where requests with an unusable token are redirected. Defaults to "/"
	TokenProblemRedirect string

	Logger *slog.Logger
}

func (a *MagicLinkAuth) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *MagicLinkAuth) tokenParam() string {
	if a.TokenParam != "" {
		return a.TokenParam
	}
	return "token"
}

func (a *MagicLinkAuth) emailParam() string {
	if a.EmailParam != "" {
		return a.EmailParam
	}
	return "magic_link_email"
}

func (a *MagicLinkAuth) tokenProblemRedirect() string {
	if a.TokenProblemRedirect != "" {
		return a.TokenProblemRedirect
	}
	return "/"
}

func (a *MagicLinkAuth) createPrincipal() CreatePrincipalFunc {
	if a.CreatePrincipal != nil {
		return a.CreatePrincipal
	}
	return NewCreatePrincipalFunc(a.Directory)
}

// Issue looks the member up by email, signs a token for its first authentication id and mails it.
//
// The returned error is non nil only for directory or mail failures (ErrTransport) and
// signing failures (ErrSigning). In that case the outcome must not be shown to the user.
func (a *MagicLinkAuth) Issue(ctx context.Context, email string) (IssueOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return IssueEmailMissing, nil
	}

	member, err := a.Directory.FindMemberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return IssueMemberNotFound, nil
		}
		return IssueFailed, transportError("find member by email", err)
	}
	if member == nil {
		return IssueMemberNotFound, nil
	}

	token, err := a.Tokens.Sign(member.FirstAuthentication())
	if err != nil {
		return IssueFailed, err
	}

	if err := a.Mailer.SendMagicLink(ctx, member, token); err != nil {
		return IssueFailed, transportError("send magic link", err)
	}

	a.logger().Info("magic link sent", "member", member.ID)
	return IssueSuccess, nil
}

// Authenticate verifies a token and resolves it to a principal.
// Token failures are ErrTokenInvalid; resolving failures are ErrTransport.
func (a *MagicLinkAuth) Authenticate(ctx context.Context, token string) (*Principal, error) {
	authenticationID, err := a.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return a.createPrincipal()(ctx, "magiclink", authenticationID, nil)
}

// HandleMagicLinkMail serves the request for a magic link mail.
func (a *MagicLinkAuth) HandleMagicLinkMail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	outcome, err := a.Issue(ctx, r.URL.Query().Get(a.emailParam()))
	if err != nil {
		a.logger().Error("magic link request failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if refused := outcome.Err(); refused != nil {
		a.logger().Info("magic link not sent", "reason", refused)
	}

	var msg StatusMessage
	switch outcome {
	case IssueEmailMissing:
		msg = ErrorMessage(ErrCodeMagicLinkNoEmail, "Please enter the email address of a registered member.")
	case IssueMemberNotFound:
		msg = ErrorMessage(ErrCodeMagicLinkNoMember, "We could not find this email address. Please use the address stored in your member profile.")
	default:
		msg = SuccessMessage("Your magic link is on its way",
			"We sent you a magic link. It is valid for 30 minutes. Please also check your spam folder if it does not arrive.")
	}
	if a.Sessions != nil {
		msg.PutIntoSession(ctx, a.Sessions)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// ServeHTTP logs a member in with the token given in the query.
// Every token problem ends in the same redirect; a failing directory is a 500.
func (a *MagicLinkAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := a.Authenticate(r.Context(), r.URL.Query().Get(a.tokenParam()))
	if errors.Is(err, ErrTokenInvalid) {
		a.logger().Info("magic link token rejected", "err", err)
		http.Redirect(w, r, a.tokenProblemRedirect(), http.StatusFound)
		return
	}
	if err != nil {
		a.logger().Error("magic link login failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	a.HandleUser(principal, w, r)
}

func (a *MagicLinkAuth) Name() string { return "magiclink" }

// BeginAuth and CompleteAuth both log in with the token of the request.
func (a *MagicLinkAuth) BeginAuth(w http.ResponseWriter, r *http.Request) { a.ServeHTTP(w, r) }

func (a *MagicLinkAuth) CompleteAuth(w http.ResponseWriter, r *http.Request) { a.ServeHTTP(w, r) }
