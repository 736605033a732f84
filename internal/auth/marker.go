// Package auth holds request identity: the session context and the signed
// marker recording who is signed in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/invibe/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
)

// MarkerKey is the session storage key holding the signed-in marker.
const MarkerKey = "invibe-user"

// AccessTokenKey is the session storage key holding the auth service token.
const AccessTokenKey = "access_token"

const (
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
	issuer    = "invibe"
)

var ErrInvalidMarker = errors.New("invalid user marker")

type markerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Signer issues and verifies user markers.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSigner derives the HMAC key from secret and salt with Argon2id.
func NewSigner(secret, salt string, ttl time.Duration) *Signer {
	return &Signer{
		key: argon2.IDKey([]byte(secret), []byte(salt), argonTime, argonMem, argonPar, keySize),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *Signer) Sign(u model.User) (string, error) {
	now := s.now()
	claims := markerClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign marker: %w", err)
	}
	return signed, nil
}

func (s *Signer) Verify(marker string) (*model.User, error) {
	var claims markerClaims
	_, err := jwt.ParseWithClaims(marker, &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMarker, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidMarker)
	}
	return &model.User{ID: claims.Subject, Email: claims.Email}, nil
}
