package file

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/irsalhamdi/expert-class/random"
)

const issuer = "kelas-files"

type uploadClaims struct {
	jwt.RegisteredClaims
}

func (s *Storage) issueToken(userID string, now time.Time) (string, time.Time, error) {
	jti, err := random.StringSecure(16)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generating token id: %w", err)
	}

	exp := now.Add(s.TTL)
	c := uploadClaims{jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing upload token: %w", err)
	}
	return tok, exp, nil
}

// parseToken returns the user the upload token was issued to.
func (s *Storage) parseToken(tok string) (string, error) {
	var c uploadClaims
	_, err := jwt.ParseWithClaims(tok, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Issuer != issuer || c.Subject == "" {
		return "", fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	return c.Subject, nil
}
