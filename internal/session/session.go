// Package session verifies Clerk session tokens after an automated sign-in,
// so a smoke run can assert that a real session was established rather than
// trusting the page state alone.
package session

import (
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claims Clerk places in a session token.
type Claims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
	OrgID           string `json:"org_id,omitempty"`
	OrgRole         string `json:"org_role,omitempty"`
	OrgSlug         string `json:"org_slug,omitempty"`
}

// Verifier validates session tokens against a Clerk instance's JWKS.
type Verifier struct {
	jwks   keyfunc.Keyfunc
	issuer string
}

// NewVerifier creates a verifier for the given Clerk frontend API domain,
// e.g. "https://healthy-gnu-42.clerk.accounts.dev".
func NewVerifier(domain string) (*Verifier, error) {
	issuer := strings.TrimSuffix(domain, "/")
	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", issuer)

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS keyfunc: %w", err)
	}

	return &Verifier{jwks: jwks, issuer: issuer}, nil
}

// Verify validates a session token and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
