package router

import (
	"context"
	"net/http"
	"time"

	"social-backend/internal/auth"
	"social-backend/internal/comment"
	"social-backend/internal/media"
	"social-backend/internal/post"
	"social-backend/internal/shared/httpx"
	"social-backend/internal/user"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Tokens   *auth.TokenService
	Users    *user.Handler
	Posts    *post.Handler
	Comments *comment.Handler
	// Media is nil when object storage is not configured.
	Media *media.Handler
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

func New(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /health", httpx.Wrap(health(d.Ready)))

	protect := func(pattern string, h http.Handler) {
		mux.Handle(pattern, httpx.AuthMiddleware(d.Tokens)(h))
	}

	ah := auth.NewHandler(d.Tokens)
	mux.Handle("POST /api/register", httpx.Wrap(d.Users.Register))
	mux.Handle("POST /api/login", httpx.Wrap(d.Users.Login))
	mux.Handle("GET /api/validate-token", httpx.Wrap(ah.ValidateToken))
	protect("GET /api/users/me", httpx.Wrap(d.Users.Me))

	mux.Handle("GET /api/posts", httpx.Wrap(d.Posts.List))
	mux.Handle("GET /api/posts/user/{userId}", httpx.Wrap(d.Posts.ListByUser))
	mux.Handle("GET /api/posts/{postId}", httpx.Wrap(d.Posts.GetByID))
	protect("POST /api/posts", httpx.Wrap(d.Posts.Create))
	protect("POST /api/posts/with-comment", httpx.Wrap(d.Posts.CreateWithComment))
	protect("PUT /api/posts/{postId}", httpx.Wrap(d.Posts.Update))
	protect("DELETE /api/posts/{postId}", httpx.Wrap(d.Posts.Delete))

	mux.Handle("GET /api/comments/post/{postId}", httpx.Wrap(d.Comments.ListByPost))
	protect("POST /api/comments", httpx.Wrap(d.Comments.Create))
	protect("GET /api/comments/user", httpx.Wrap(d.Comments.ListMine))

	if d.Media != nil {
		protect("POST /api/media", httpx.Wrap(d.Media.Upload))
	}
	return mux
}

func health(ready func(context.Context) error) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				httpx.WriteJSON(w, httpx.Envelope{Success: false, Message: "unavailable"}, http.StatusServiceUnavailable)
				return nil
			}
		}
		httpx.OK(w, http.StatusOK, "ok", nil)
		return nil
	}
}
