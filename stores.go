package agoraauth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Member is a registered community member as seen by the authentication layer.
type Member struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	Authentications []string       `json:"authentications"` // linked authentication ids, oldest first
	PasswordHash    string         `json:"password_hash,omitempty"`
	Profile         map[string]any `json:"profile,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// FirstAuthentication returns the oldest linked authentication id or "" if there is none.
func (m *Member) FirstAuthentication() string {
	if len(m.Authentications) == 0 {
		return ""
	}
	return m.Authentications[0]
}

// HasAuthentication tells if the given authentication id is linked to this member.
func (m *Member) HasAuthentication(authenticationID string) bool {
	for _, a := range m.Authentications {
		if a == authenticationID {
			return true
		}
	}
	return false
}

// SetPassword stores a bcrypt hash of the given password.
func (m *Member) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hash)
	return nil
}

// PasswordMatches reports whether password matches the stored hash.
// Members without a password never match.
func (m *Member) PasswordMatches(password string) bool {
	if m.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) == nil
}

// MemberDirectory is the read side of the member store needed for authentication.
//
// Both lookups return ErrMemberNotFound (possibly wrapped) when nothing matches.
// Any other error is treated as a transport failure.
type MemberDirectory interface {
	// FindMemberByEmail looks a member up by email, ignoring case
	FindMemberByEmail(ctx context.Context, email string) (*Member, error)

	// FindMemberByAuthenticationID finds the member that has the given authentication id linked
	FindMemberByAuthenticationID(ctx context.Context, authenticationID string) (*Member, error)
}

// MemberStore is a MemberDirectory that can also persist members.
type MemberStore interface {
	MemberDirectory

	// SaveMember creates or updates a member (upsert)
	SaveMember(ctx context.Context, member *Member) error
}

// NormalizeEmail is the canonical form used for email lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
