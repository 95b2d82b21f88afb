package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// DefaultSecret is used when no JWT secret is configured.
const DefaultSecret = "ThisIsASecretKeyForJWTGenerationWithMinimum256BitsLength"

const (
	PolicyStatic    = "static"
	PolicyEphemeral = "ephemeral"
)

const (
	keyLen  = 32
	keyInfo = "social-backend/jwt-hs256"
)

// SecretProvider supplies the HMAC key used to sign and verify tokens.
// The key is fixed for the lifetime of the provider.
type SecretProvider interface {
	SigningKey() []byte
	Policy() string
}

type secret struct {
	key    []byte
	policy string
}

func (s *secret) SigningKey() []byte { return s.key }
func (s *secret) Policy() string     { return s.policy }

// NewStaticSecret derives a key from base only. Tokens survive restarts
// as long as base does not change.
func NewStaticSecret(base string) (SecretProvider, error) {
	key, err := deriveKey(baseOrDefault(base), nil)
	if err != nil {
		return nil, err
	}
	return &secret{key: key, policy: PolicyStatic}, nil
}

// NewEphemeralSecret mixes a random per-process salt into the key, so every
// restart invalidates all tokens issued before it.
func NewEphemeralSecret(base string) (SecretProvider, error) {
	return newEphemeralSecret(base, rand.Reader)
}

func newEphemeralSecret(base string, rnd io.Reader) (SecretProvider, error) {
	salt := make([]byte, keyLen)
	if _, err := io.ReadFull(rnd, salt); err != nil {
		return nil, fmt.Errorf("read process salt: %w", err)
	}
	key, err := deriveKey(baseOrDefault(base), salt)
	if err != nil {
		return nil, err
	}
	return &secret{key: key, policy: PolicyEphemeral}, nil
}

// NewSecretProvider picks the strategy by name. An empty policy means ephemeral.
func NewSecretProvider(policy, base string) (SecretProvider, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyStatic:
		return NewStaticSecret(base)
	case PolicyEphemeral, "":
		return NewEphemeralSecret(base)
	default:
		return nil, fmt.Errorf("unknown jwt secret policy %q", policy)
	}
}

func baseOrDefault(base string) string {
	if strings.TrimSpace(base) == "" {
		return DefaultSecret
	}
	return base
}

func deriveKey(base string, salt []byte) ([]byte, error) {
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(base), salt, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}
