package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"social-backend/internal/shared/apperr"
)

type stubVerifier struct {
	uid   int64
	err   error
	calls int
}

func (s *stubVerifier) Verify(string) (int64, error) {
	s.calls++
	return s.uid, s.err
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return env
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	v := &stubVerifier{uid: 1}
	reached := false
	h := AuthMiddleware(v)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))

	for _, hdr := range []string{"", "Basic abc", "Bearer ", "Bearer    "} {
		req := httptest.NewRequest(http.MethodGet, "/api/comments/user", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", hdr, rr.Code)
		}
		if env := decodeEnvelope(t, rr); env.Success {
			t.Fatalf("header %q: success should be false", hdr)
		}
	}
	if reached || v.calls != 0 {
		t.Fatalf("handler or verifier invoked without a bearer token")
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	v := &stubVerifier{err: apperr.Auth("token expired")}
	h := AuthMiddleware(v)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Message != "token expired" {
		t.Fatalf("message = %q", env.Message)
	}
}

func TestAuthMiddlewarePassesUserID(t *testing.T) {
	v := &stubVerifier{uid: 42}
	var got int64
	h := AuthMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromCtx(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != 42 {
		t.Fatalf("user id = %d, want 42", got)
	}
}

func TestWrapMapsErrors(t *testing.T) {
	cases := []struct {
		err     error
		code    int
		message string
	}{
		{apperr.Validation("content is required"), http.StatusBadRequest, "content is required"},
		{apperr.Forbidden("not the owner"), http.StatusForbidden, "not the owner"},
		{apperr.NotFound("post not found"), http.StatusNotFound, "post not found"},
		{apperr.Conflict("phone already registered"), http.StatusConflict, "phone already registered"},
		{errors.New("sql: connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, c := range cases {
		h := Wrap(func(http.ResponseWriter, *http.Request) error { return c.err })
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != c.code {
			t.Fatalf("%v: status = %d, want %d", c.err, rr.Code, c.code)
		}
		env := decodeEnvelope(t, rr)
		if env.Success || env.Message != c.message {
			t.Fatalf("%v: envelope = %+v", c.err, env)
		}
	}
}

func TestDecodeErrorsAreValidation(t *testing.T) {
	for _, body := range []string{"", "{not json"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		_, err := Decode[map[string]any](req)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("body %q: got %v", body, err)
		}
	}
}

func TestPathInt64(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("GET /posts/{postId}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathInt64(r, "postId")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/17", nil))
	if gotErr != nil || got != 17 {
		t.Fatalf("got %d, %v", got, gotErr)
	}
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/abc", nil))
	if apperr.KindOf(gotErr) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}
