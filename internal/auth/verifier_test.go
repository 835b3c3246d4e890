package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

type staticKeys struct {
	set jwk.Set
	err error
	url string
}

func (s *staticKeys) Lookup(_ context.Context, u string) (jwk.Set, error) {
	s.url = u
	return s.set, s.err
}

func TestJWKSURL(t *testing.T) {
	got := JWKSURL("https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_abc/")
	want := "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_abc/.well-known/jwks.json"
	if got != want {
		t.Errorf("JWKSURL() = %q, want %q", got, want)
	}
}

func TestVerifyKeySetFailure(t *testing.T) {
	keys := &staticKeys{err: errors.New("network down")}
	v := &Verifier{keys: keys, jwksURL: JWKSURL("https://issuer"), issuer: "https://issuer", clientID: "client"}

	if _, err := v.Verify(context.Background(), "token"); err == nil {
		t.Fatal("expected an error when the key set cannot be fetched")
	}
	if keys.url != "https://issuer/.well-known/jwks.json" {
		t.Errorf("unexpected JWKS url %q", keys.url)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	keys := &staticKeys{set: jwk.NewSet()}
	v := &Verifier{keys: keys, jwksURL: JWKSURL("https://issuer"), issuer: "https://issuer", clientID: "client"}

	_, err := v.Verify(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
