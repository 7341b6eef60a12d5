package agoraauth

import (
	"context"
	"errors"
)

// Principal is the result of a successful authentication by any strategy.
type Principal struct {
	// Provider is the strategy name that authenticated the request ("github", "magiclink", ...)
	Provider string

	AuthenticationID string

	// Profile data as reported by the provider, may be nil
	Profile map[string]any

	// Member is nil when the authentication id is not linked to any member yet.
	// The host application then continues with registration.
	Member *Member
}

// IsNewMember tells if this principal still needs to register.
func (p *Principal) IsNewMember() bool {
	return p.Member == nil
}

// CreatePrincipalFunc turns a provider result into a principal.
type CreatePrincipalFunc func(ctx context.Context, provider, authenticationID string, profile map[string]any) (*Principal, error)

// NewCreatePrincipalFunc resolves the member linked to an authentication id through the directory.
// An unknown authentication id yields a principal without member; directory failures are errors.
func NewCreatePrincipalFunc(directory MemberDirectory) CreatePrincipalFunc {
	return func(ctx context.Context, provider, authenticationID string, profile map[string]any) (*Principal, error) {
		out := &Principal{Provider: provider, AuthenticationID: authenticationID, Profile: profile}
		if directory == nil {
			return out, nil
		}
		member, err := directory.FindMemberByAuthenticationID(ctx, authenticationID)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				return out, nil
			}
			return nil, transportError("resolve authentication id", err)
		}
		out.Member = member
		return out, nil
	}
}
