package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"social-backend/internal/shared/apperr"
)

type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Wrap turns an error-returning handler into an http.Handler. Typed errors
// become their mapped status, anything else is logged and answered with 500.
func Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, r, err)
		}
	})
}

func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
	}
	WriteJSON(w, Envelope{Success: false, Message: apperr.Message(err)}, apperr.Status(kind))
}

func Decode[T any](r *http.Request) (T, error) {
	var t T
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return t, apperr.Validation("request body is required")
		}
		return t, &apperr.Error{Kind: apperr.KindValidation, Message: "malformed request body", Cause: err}
	}
	return t, nil
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, code int, msg string, data any) {
	WriteJSON(w, Envelope{Success: true, Message: msg, Data: data}, code)
}

// PathInt64 parses a positive integer path segment.
func PathInt64(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return n, nil
}

type ctxKey string

const ctxUserIDKey ctxKey = "httpx.user_id"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", apperr.Auth("missing bearer token")
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	if tok == "" {
		return "", apperr.Auth("missing bearer token")
	}
	return tok, nil
}

// AuthMiddleware rejects requests without a valid bearer token before the
// wrapped handler runs, and stores the user id in the request context.
func AuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := BearerToken(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			uid, err := v.Verify(tok)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}

func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, uid)
}

func UserFromCtx(r *http.Request) (int64, error) {
	uid, ok := r.Context().Value(ctxUserIDKey).(int64)
	if !ok || uid == 0 {
		return 0, apperr.Auth("unauthorized")
	}
	return uid, nil
}
