// Package grpc carries the logged in authentication id from the web session
// to gRPC backends via metadata.
package grpc

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"google.golang.org/grpc/metadata"

	aa "github.com/softwerkskammer/agoraauth"
)

// Default metadata keys
const (
	DefaultMetadataKeyAuthenticationID = "x-authentication-id"
	DefaultMetadataKeyMemberID         = "x-member-id"
)

// Config holds the metadata key configuration.
type Config struct {
	// Defaults to "x-authentication-id"
	MetadataKeyAuthenticationID string

	// Defaults to "x-member-id"
	MetadataKeyMemberID string
}

func DefaultConfig() *Config {
	return &Config{
		MetadataKeyAuthenticationID: DefaultMetadataKeyAuthenticationID,
		MetadataKeyMemberID:         DefaultMetadataKeyMemberID,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyAuthenticationID == "" {
		c.MetadataKeyAuthenticationID = DefaultMetadataKeyAuthenticationID
	}
	if c.MetadataKeyMemberID == "" {
		c.MetadataKeyMemberID = DefaultMetadataKeyMemberID
	}
}

// AuthenticationIDFromContext extracts the authentication id from the incoming metadata.
// Returns "" if nobody is logged in.
func AuthenticationIDFromContext(ctx context.Context) string {
	return firstValue(ctx, DefaultMetadataKeyAuthenticationID)
}

// MemberIDFromContext extracts the member id from the incoming metadata.
// Returns "" for logged in users that are not members yet.
func MemberIDFromContext(ctx context.Context) string {
	return firstValue(ctx, DefaultMetadataKeyMemberID)
}

func firstValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// AuthenticationIDToOutgoingContext adds the authentication id to outgoing metadata.
func AuthenticationIDToOutgoingContext(ctx context.Context, authenticationID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyAuthenticationID, authenticationID)
}

// OutgoingContextFromSession copies the session's login state into outgoing metadata.
// Anonymous sessions yield the request context unchanged.
func OutgoingContextFromSession(r *http.Request, sessions *scs.SessionManager, config *Config) context.Context {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	ctx := r.Context()
	authenticationID := sessions.GetString(ctx, aa.SessionKeyAuthenticationID)
	if authenticationID == "" {
		return ctx
	}
	kv := []string{config.MetadataKeyAuthenticationID, authenticationID}
	if memberID := sessions.GetString(ctx, aa.SessionKeyMemberID); memberID != "" {
		kv = append(kv, config.MetadataKeyMemberID, memberID)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// IsAuthenticated returns true if the incoming metadata carries an authentication id.
func IsAuthenticated(ctx context.Context) bool {
	return AuthenticationIDFromContext(ctx) != ""
}
