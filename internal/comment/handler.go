package comment

import (
	"net/http"

	"social-backend/internal/shared/httpx"
	"social-backend/internal/shared/validate"
)

type Handler struct{ svc Service }

func NewHandler(s Service) *Handler { return &Handler{svc: s} }

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
	c, err := h.svc.Create(r.Context(), uid, in.PostID, in.Content)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusCreated, "comment created", c)
	return nil
}

func (h *Handler) ListByPost(w http.ResponseWriter, r *http.Request) error {
	pid, err := httpx.PathInt64(r, "postId")
	if err != nil {
		return err
	}
	items, err := h.svc.GetByPost(r.Context(), pid)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", items)
	return nil
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
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
