package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"social-backend/internal/auth"
	"social-backend/internal/shared/apperr"
	"social-backend/internal/shared/db"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	s, err := db.Open(context.Background(), db.Config{
		Driver:   db.DriverSQLite,
		DSN:      "file:" + t.Name() + "?mode=memory&cache=shared",
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Base.AutoMigrate(&User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

type fixture struct {
	store  *db.Store
	repo   Repository
	tokens *auth.TokenService
	svc    Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := newTestStore(t)
	sp, err := auth.NewStaticSecret("test")
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	tokens := auth.NewTokenService(sp, time.Hour)
	repo := NewRepository(store)
	return &fixture{
		store:  store,
		repo:   repo,
		tokens: tokens,
		svc:    NewService(repo, auth.NewBcryptHasher(4), tokens, opts),
	}
}

func strp(s string) *string { return &s }

func phone() string { return gofakeit.Numerify("09########") }

func TestRegisterSanitizesAndHashes(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	u, err := f.svc.Register(ctx, RegisterReq{
		PhoneNumber: "0912345678",
		UserName:    "<b>Ann</b>",
		Password:    "pw123",
		CoverImage:  strp("javascript:alert(1)"),
		Biography:   strp(`<i>hi</i><script>x()</script>`),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 || u.UserName != "Ann" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.Email != nil {
		t.Fatalf("absent email must stay nil, got %q", *u.Email)
	}
	if u.CoverImage == nil || *u.CoverImage != "" {
		t.Fatalf("rejected cover must be empty string, got %v", u.CoverImage)
	}
	if u.Biography == nil || *u.Biography != "<i>hi</i>" {
		t.Fatalf("biography = %v", u.Biography)
	}

	stored, err := f.repo.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Password == "pw123" || !auth.IsBcryptHash(stored.Password) {
		t.Fatalf("password stored as %q", stored.Password)
	}
}

func TestRegisterAcceptsPhoneAlias(t *testing.T) {
	f := newFixture(t, Options{})
	u, err := f.svc.Register(context.Background(), RegisterReq{Phone: "0911", UserName: "Bo", Password: "pw"})
	if err != nil || u.PhoneNumber != "0911" {
		t.Fatalf("register via alias: %+v, %v", u, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, Options{})
	cases := []RegisterReq{
		{UserName: "a", Password: "p"},
		{PhoneNumber: "0912", Password: "p"},
		{PhoneNumber: "0912", UserName: "a"},
		{PhoneNumber: "0912345678901", UserName: "a", Password: "p"},
		{PhoneNumber: "0912", UserName: "<b></b>", Password: "p"},
	}
	for _, in := range cases {
		if _, err := f.svc.Register(context.Background(), in); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("%+v: got %v, want validation error", in, err)
		}
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	p := phone()
	if _, err := f.svc.Register(ctx, RegisterReq{PhoneNumber: p, UserName: "a", Password: "p"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := f.svc.Register(ctx, RegisterReq{PhoneNumber: p, UserName: "b", Password: "q"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate: got %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	p := phone()
	u, err := f.svc.Register(ctx, RegisterReq{PhoneNumber: p, UserName: gofakeit.Name(), Password: "pw123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tok, err := f.svc.Login(ctx, p, "pw123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	uid, err := f.tokens.Verify(tok)
	if err != nil || uid != u.ID {
		t.Fatalf("token subject = %d, %v; want %d", uid, err, u.ID)
	}

	for _, c := range [][2]string{{p, "wrong"}, {"0000", "pw123"}, {"", "pw123"}, {p, ""}} {
		_, err := f.svc.Login(ctx, c[0], c[1])
		if apperr.KindOf(err) != apperr.KindAuth || apperr.Message(err) != "invalid credentials" {
			t.Fatalf("login(%q, %q) = %v", c[0], c[1], err)
		}
	}
}

func insertLegacy(t *testing.T, f *fixture, phone, plain string) *User {
	t.Helper()
	u := &User{PhoneNumber: phone, UserName: "legacy", Password: plain}
	if err := f.repo.Create(context.Background(), u); err != nil {
		t.Fatalf("insert legacy user: %v", err)
	}
	return u
}

func TestLegacyPlaintextDisabledByDefault(t *testing.T) {
	f := newFixture(t, Options{})
	insertLegacy(t, f, "0900", "plainpw")
	if _, err := f.svc.Login(context.Background(), "0900", "plainpw"); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("plaintext login accepted with shim off: %v", err)
	}
}

func TestLegacyPlaintextUpgradesOnLogin(t *testing.T) {
	f := newFixture(t, Options{LegacyPlaintext: true})
	ctx := context.Background()
	u := insertLegacy(t, f, "0900", "plainpw")

	if _, err := f.svc.Login(ctx, "0900", "nope"); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("wrong plaintext accepted: %v", err)
	}
	if _, err := f.svc.Login(ctx, "0900", "plainpw"); err != nil {
		t.Fatalf("legacy login: %v", err)
	}
	stored, _ := f.repo.FindByID(ctx, u.ID)
	if !auth.IsBcryptHash(stored.Password) {
		t.Fatalf("password not upgraded: %q", stored.Password)
	}
	if _, err := f.svc.Login(ctx, "0900", "plainpw"); err != nil {
		t.Fatalf("login after upgrade: %v", err)
	}
}

func TestLegacyShimIgnoresHashedRows(t *testing.T) {
	f := newFixture(t, Options{LegacyPlaintext: true})
	hash, _ := auth.NewBcryptHasher(4).Hash("real")
	insertLegacy(t, f, "0901", hash)
	// presenting the stored hash itself must not log in
	if _, err := f.svc.Login(context.Background(), "0901", hash); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("hash accepted as password: %v", err)
	}
}

func TestFindByID(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	u, _ := f.svc.Register(ctx, RegisterReq{PhoneNumber: phone(), UserName: "x", Password: "p", Email: strp("a@b.c")})
	got, err := f.svc.FindByID(ctx, u.ID)
	if err != nil || got.Email == nil || !strings.EqualFold(*got.Email, "a@b.c") {
		t.Fatalf("FindByID = %+v, %v", got, err)
	}
	if _, err := f.svc.FindByID(ctx, u.ID+100); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing user: %v", err)
	}
}
