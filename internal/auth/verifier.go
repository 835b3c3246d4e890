// Package auth verifies access tokens issued by the Cognito user pool.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrWrongClient  = errors.New("access token issued for another client")
)

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Name     string
}

type keySetSource interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

// Verifier checks Cognito access tokens against the pool's JWKS.
type Verifier struct {
	keys     keySetSource
	jwksURL  string
	issuer   string
	clientID string
}

// JWKSURL returns the well-known key set location of an issuer.
func JWKSURL(issuer string) string {
	return fmt.Sprintf("%s/.well-known/jwks.json", strings.TrimSuffix(issuer, "/"))
}

func NewVerifier(cache *jwk.Cache, issuer, clientID string) *Verifier {
	return &Verifier{
		keys:     cache,
		jwksURL:  JWKSURL(issuer),
		issuer:   strings.TrimSuffix(issuer, "/"),
		clientID: clientID,
	}
}

// Verify parses and validates token and returns the identity it carries.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	parsed, err := jwt.Parse(
		[]byte(token),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var tokenUse string
	if err := parsed.Get("token_use", &tokenUse); err != nil || tokenUse != "access" {
		return nil, fmt.Errorf("%w: token_use is %q", ErrInvalidToken, tokenUse)
	}

	var clientID string
	if err := parsed.Get("client_id", &clientID); err != nil || clientID != v.clientID {
		return nil, ErrWrongClient
	}

	// Use Subject() for the standard "sub" claim
	userID, ok := parsed.Subject()
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: no subject claim", ErrInvalidToken)
	}

	identity := &Identity{UserID: userID}

	// access tokens carry username; email and name only appear when the
	// pool is configured to add them
	_ = parsed.Get("username", &identity.Username)
	_ = parsed.Get("email", &identity.Email)
	_ = parsed.Get("name", &identity.Name)

	return identity, nil
}
