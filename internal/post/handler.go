package post

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"social-backend/internal/idem"
	"social-backend/internal/shared/apperr"
	"social-backend/internal/shared/httpx"
	"social-backend/internal/shared/validate"
)

const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	svc  Service
	idem idem.Store
}

func NewHandler(s Service, store idem.Store) *Handler {
	if store == nil {
		store = idem.Nop{}
	}
	return &Handler{svc: s, idem: store}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	in, err := httpx.Decode[CreateReq](r)
	if err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	p, err := h.svc.Create(r.Context(), uid, in)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusCreated, "post created", p)
	return nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	items, err := h.svc.GetAll(r.Context())
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", items)
	return nil
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.PathInt64(r, "userId")
	if err != nil {
		return err
	}
	items, err := h.svc.GetByUser(r.Context(), uid)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", items)
	return nil
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.PathInt64(r, "postId")
	if err != nil {
		return err
	}
	p, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", p)
	return nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	id, err := httpx.PathInt64(r, "postId")
	if err != nil {
		return err
	}
	in, err := httpx.Decode[UpdateReq](r)
	if err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	p, err := h.svc.Update(r.Context(), uid, id, in)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "post updated", p)
	return nil
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	id, err := httpx.PathInt64(r, "postId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(r.Context(), uid, id); err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "post deleted", map[string]string{"message": "post deleted"})
	return nil
}

// CreateWithComment honours an optional Idempotency-Key header: a repeated key
// from the same user replays the first result instead of writing again.
func (h *Handler) CreateWithComment(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	in, err := httpx.Decode[CreateWithCommentReq](r)
	if err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key == "" {
		res, err := h.svc.CreateWithComment(r.Context(), uid, in)
		if err != nil {
			return err
		}
		httpx.OK(w, http.StatusCreated, "post and comment created", res)
		return nil
	}

	ctx := r.Context()
	scoped := fmt.Sprintf("posts:with-comment:%d:%s", uid, key)
	var prev CreateWithCommentResult
	state, err := h.idem.Begin(ctx, scoped, &prev)
	if err != nil {
		return apperr.Internal("idempotency lookup", err)
	}
	switch state {
	case idem.Done:
		httpx.OK(w, http.StatusCreated, "post and comment created", prev)
		return nil
	case idem.InFlight:
		return apperr.Conflict("a request with this idempotency key is in progress")
	}

	res, err := h.svc.CreateWithComment(ctx, uid, in)
	if err != nil {
		if rerr := h.idem.Release(ctx, scoped); rerr != nil {
			slog.WarnContext(ctx, "idempotency release failed", "err", rerr)
		}
		return err
	}
	if err := h.idem.Complete(ctx, scoped, res); err != nil {
		slog.WarnContext(ctx, "idempotency store failed", "err", err)
	}
	httpx.OK(w, http.StatusCreated, "post and comment created", res)
	return nil
}
