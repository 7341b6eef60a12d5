package agoraauth

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailMissing is returned when a magic link is requested without an email address.
	ErrEmailMissing = errors.New("email address required")

	// ErrMemberNotFound is returned by directories when no member matches a lookup.
	ErrMemberNotFound = errors.New("member not found")

	// ErrTransport marks failures of the member directory or the mail service.
	ErrTransport = errors.New("collaborator unavailable")

	// ErrSigning marks failures to create a magic link token.
	ErrSigning = errors.New("token signing failed")

	// ErrTokenInvalid covers every reason a magic link token is rejected:
	// bad signature, wrong algorithm, expiry, or a malformed token.
	ErrTokenInvalid = errors.New("invalid magic link token")
)

// Error codes handed to the host application as status message keys.
const (
	ErrCodeMissingField       = "missing_field"
	ErrCodeMemberExists       = "authentication.error_member_exists"
	ErrCodeMemberNotExists    = "authentication.error_member_not_exists"
	ErrCodeMagicLinkNoEmail   = "authentication.magiclink_no_email"
	ErrCodeMagicLinkNoMember  = "authentication.magiclink_no_member"
	ErrCodeAuthenticationFail = "authentication.error"
)

// AuthError is a user facing authentication failure.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
