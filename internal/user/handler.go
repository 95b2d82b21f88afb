package user

import (
	"net/http"
	"time"

	"social-backend/internal/shared/httpx"
	"social-backend/internal/shared/validate"
)

type Handler struct {
	svc      Service
	tokenTTL time.Duration
}

func NewHandler(s Service, tokenTTL time.Duration) *Handler {
	return &Handler{svc: s, tokenTTL: tokenTTL}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	body, err := httpx.Decode[RegisterReq](r)
	if err != nil {
		return err
	}
	if err = validate.Struct(body); err != nil {
		return err
	}
	u, err := h.svc.Register(r.Context(), body)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusCreated, "user registered", u)
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	body, err := httpx.Decode[LoginReq](r)
	if err != nil {
		return err
	}
	tok, err := h.svc.Login(r.Context(), body.PhoneValue(), body.Password)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "login successful", LoginResp{
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokenTTL.Seconds()),
	})
	return nil
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	u, err := h.svc.FindByID(r.Context(), uid)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", u)
	return nil
}
