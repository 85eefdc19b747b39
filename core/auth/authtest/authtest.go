// Package authtest mints identity provider tokens for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/irsalhamdi/expert-class/core/auth"
)

const Issuer = "https://clerk.test.local"

type Signer struct {
	key *rsa.PrivateKey
}

func NewSigner(t *testing.T) *Signer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating signing key: %v", err)
	}
	return &Signer{key: key}
}

// Verifier accepts the tokens minted by s.
func (s *Signer) Verifier() *auth.OIDCVerifier {
	return auth.NewStaticVerifier(Issuer, &s.key.PublicKey)
}

// Token returns a session token for subject. An empty role leaves the
// metadata claim out.
func (s *Signer) Token(t *testing.T, subject, email, role string) string {
	t.Helper()

	now := time.Now()
	c := jwt.MapClaims{
		"iss":   Issuer,
		"sub":   subject,
		"email": email,
		"name":  subject,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	if role != "" {
		c["metadata"] = map[string]any{"role": role}
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(s.key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return tok
}
