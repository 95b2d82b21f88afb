package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"social-backend/internal/auth"
	"social-backend/internal/sanitize"
	"social-backend/internal/shared/apperr"
	"social-backend/internal/shared/metrics"

	"gorm.io/gorm"
)

const maxPhoneLen = 12

var errBadCredentials = apperr.Auth("invalid credentials")

type Service interface {
	Register(ctx context.Context, in RegisterReq) (*User, error)
	Login(ctx context.Context, phone, password string) (string, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

type Options struct {
	// LegacyPlaintext accepts stored passwords that were never hashed and
	// re-hashes them on the first successful login.
	LegacyPlaintext bool
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	opts   Options
}

func NewService(r Repository, h auth.PasswordHasher, t TokenIssuer, opts Options) Service {
	return &service{repo: r, hasher: h, tokens: t, opts: opts}
}

func (s *service) Register(ctx context.Context, in RegisterReq) (*User, error) {
	phone := in.PhoneValue()
	switch {
	case strings.TrimSpace(phone) == "":
		return nil, apperr.Validation("phoneNumber is required")
	case utf8.RuneCountInString(phone) > maxPhoneLen:
		return nil, apperr.Validation("phoneNumber must be at most 12 characters")
	case strings.TrimSpace(in.UserName) == "":
		return nil, apperr.Validation("userName is required")
	case in.Password == "":
		return nil, apperr.Validation("password is required")
	}

	name := strings.TrimSpace(sanitize.StripTags(in.UserName))
	if name == "" {
		return nil, apperr.Validation("userName is required")
	}

	exists, err := s.repo.ExistsByPhone(ctx, phone)
	if err != nil {
		return nil, apperr.Internal("look up phone", err)
	}
	if exists {
		return nil, apperr.Conflict("phone number already registered")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		PhoneNumber: phone,
		UserName:    name,
		Email:       sanitize.OptStripTags(in.Email),
		Password:    hash,
		CoverImage:  sanitize.OptURL(in.CoverImage),
		Biography:   sanitize.OptRichText(in.Biography),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("phone number already registered")
		}
		return nil, apperr.Internal("insert user", err)
	}
	metrics.Inc("user_registered")
	return u, nil
}

func (s *service) Login(ctx context.Context, phone, password string) (string, error) {
	if phone == "" || password == "" {
		metrics.Inc("login_failed")
		return "", errBadCredentials
	}
	u, err := s.repo.FindByPhone(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.Inc("login_failed")
		return "", errBadCredentials
	}
	if err != nil {
		return "", apperr.Internal("find user by phone", err)
	}

	if !s.hasher.Verify(u.Password, password) {
		if !s.legacyMatch(u.Password, password) {
			metrics.Inc("login_failed")
			return "", errBadCredentials
		}
		s.upgradeLegacy(ctx, u.ID, password)
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", err
	}
	metrics.Inc("login_succeeded")
	return tok, nil
}

func (s *service) legacyMatch(stored, plain string) bool {
	if !s.opts.LegacyPlaintext || auth.IsBcryptHash(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}

// upgradeLegacy replaces a plaintext password with its hash. Failure does not
// block the login; the next login retries.
func (s *service) upgradeLegacy(ctx context.Context, id int64, plain string) {
	hash, err := s.hasher.Hash(plain)
	if err == nil {
		err = s.repo.UpdatePassword(ctx, id, hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "legacy password upgrade failed", "user_id", id, "err", err)
		return
	}
	metrics.Inc("legacy_password_upgraded")
	slog.InfoContext(ctx, "legacy password upgraded", "user_id", id)
}

func (s *service) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("find user", err)
	}
	return u, nil
}
