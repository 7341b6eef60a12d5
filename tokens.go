package agoraauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MagicLinkValidity is how long an issued magic link token can be used.
const MagicLinkValidity = 30 * time.Minute

// DefaultMagicLinkSigningAlg is compatible with tokens created by jsonwebtoken's default.
const DefaultMagicLinkSigningAlg = "HS256"

// MagicClaims is the payload of a magic link token.
type MagicClaims struct {
	AuthenticationID string `json:"authenticationId"`
	jwt.RegisteredClaims
}

// MagicTokens signs and verifies magic link tokens with a shared secret.
// It holds no state besides its configuration and is safe for concurrent use.
type MagicTokens struct {
	Secret []byte

	// HMAC algorithm name, defaults to HS256
	SigningAlg string

	// Defaults to MagicLinkValidity
	Validity time.Duration

	// Now is the clock used for issuing and verifying. Defaults to time.Now
	Now func() time.Time
}

func NewMagicTokens(secret string) *MagicTokens {
	return &MagicTokens{Secret: []byte(secret)}
}

func (t *MagicTokens) method() (jwt.SigningMethod, error) {
	alg := t.SigningAlg
	if alg == "" {
		alg = DefaultMagicLinkSigningAlg
	}
	m := jwt.GetSigningMethod(alg)
	if _, ok := m.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported magic link signing algorithm %q", alg)
	}
	return m, nil
}

func (t *MagicTokens) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *MagicTokens) validity() time.Duration {
	if t.Validity > 0 {
		return t.Validity
	}
	return MagicLinkValidity
}

// Sign creates a token for the given authentication id that expires after the validity window.
// All failures are reported as ErrSigning.
func (t *MagicTokens) Sign(authenticationID string) (string, error) {
	if authenticationID == "" {
		return "", fmt.Errorf("%w: no authentication id", ErrSigning)
	}
	if len(t.Secret) == 0 {
		return "", fmt.Errorf("%w: no secret configured", ErrSigning)
	}
	method, err := t.method()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	issuedAt := t.now()
	claims := MagicClaims{
		AuthenticationID: authenticationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.validity())),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(t.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks signature and expiry of a token and returns the embedded authentication id.
// Every rejection is reported as ErrTokenInvalid.
func (t *MagicTokens) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}
	method, err := t.method()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	var claims MagicClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return t.Secret, nil },
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.AuthenticationID == "" {
		return "", fmt.Errorf("%w: authenticationId claim missing", ErrTokenInvalid)
	}
	return claims.AuthenticationID, nil
}
