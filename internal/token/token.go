// Package token mints and verifies the two credentials the API hands out:
// signed session tokens (JWT, HS256) and short one-time tokens used in the
// email confirmation and password reset flows. Everything here is pure
// computation; nothing touches the store.
package token

import (
	"crypto/rand"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, forged, and expired session tokens
// alike; callers must not distinguish between them.
var ErrInvalidToken = errors.New("invalid token")

// OneTimeTokenLength is the length of confirmation/reset tokens.
const OneTimeTokenLength = 6

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Codec issues and verifies session tokens with a process-wide signing key
// loaded once at startup. Safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing key")
	}
	if ttl <= 0 {
		return nil, errors.New("invalid session TTL")
	}
	return &Codec{secret: secret, ttl: ttl}, nil
}

// IssueSession produces a signed token whose subject is the user id.
func (c *Codec) IssueSession(userID int64) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	return t.SignedString(c.secret)
}

// VerifySession returns the user id embedded in a valid, unexpired token.
// Expiry is strict: no clock-skew leeway is granted.
func (c *Codec) VerifySession(tokenString string) (int64, error) {
	claims := &sessionClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !t.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// NewOneTimeToken returns a fixed-length numeric token from the CSPRNG.
// Collisions across active tokens are negligible at this scale; the store
// keeps at most one active token per user anyway.
func NewOneTimeToken() string {
	buf := make([]byte, OneTimeTokenLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	digits := make([]byte, OneTimeTokenLength)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits)
}
