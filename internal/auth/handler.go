package auth

import (
	"net/http"

	"social-backend/internal/shared/httpx"
)

type Handler struct{ tokens *TokenService }

func NewHandler(t *TokenService) *Handler { return &Handler{tokens: t} }

type validateResp struct {
	Valid  bool  `json:"valid"`
	UserID int64 `json:"userId"`
}

// ValidateToken checks the bearer header itself, so it is mounted without
// the auth middleware.
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) error {
	tok, err := httpx.BearerToken(r)
	if err != nil {
		return err
	}
	uid, err := h.tokens.Verify(tok)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "token is valid", validateResp{Valid: true, UserID: uid})
	return nil
}
