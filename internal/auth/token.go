package auth

import (
	"errors"
	"strconv"
	"time"

	"social-backend/internal/shared/apperr"

	jwt "github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

// TokenService issues and verifies HS256 bearer tokens whose subject is the user id.
type TokenService struct {
	secrets SecretProvider
	ttl     time.Duration
	now     func() time.Time
}

func NewTokenService(sp SecretProvider, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secrets: sp, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secrets.SigningKey())
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	return tok, nil
}

// Verify returns the user id carried by token. Any failure is an auth error:
// bad encoding, wrong key or algorithm, missing or passed expiry, non-numeric subject.
func (s *TokenService) Verify(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secrets.SigningKey(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, &apperr.Error{Kind: apperr.KindAuth, Message: "token expired", Cause: err}
		}
		return 0, &apperr.Error{Kind: apperr.KindAuth, Message: "invalid token", Cause: err}
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, &apperr.Error{Kind: apperr.KindAuth, Message: "invalid token subject", Cause: err}
	}
	return uid, nil
}
