// Package media accepts image uploads and stores them in object storage.
// The returned URL is meant for the image field of posts and the cover image
// of profiles.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"social-backend/internal/shared/apperr"
	"social-backend/internal/shared/httpx"
	"social-backend/internal/shared/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const DefaultMaxBytes = 5 << 20

type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	URL(key string) string
}

type Handler struct {
	store    Storage
	maxBytes int64
}

func NewHandler(s Storage, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{store: s, maxBytes: maxBytes}
}

type uploadResp struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	// headroom for multipart framing around the file part
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+64<<10)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return tooLarge(h.maxBytes)
		}
		return apperr.Validation("multipart field \"file\" is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return apperr.Validation("could not read upload")
	}
	if int64(len(data)) > h.maxBytes {
		return tooLarge(h.maxBytes)
	}
	if len(data) == 0 {
		return apperr.Validation("file is empty")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return apperr.Validation("only image uploads are accepted, got " + mt.String())
	}

	key := fmt.Sprintf("users/%d/%s%s", uid, uuid.NewString(), mt.Extension())
	if err := h.store.Put(r.Context(), key, mt.String(), data); err != nil {
		return apperr.Internal("store upload", err)
	}
	metrics.Inc("media_uploaded")
	httpx.OK(w, http.StatusCreated, "uploaded", uploadResp{
		URL:         h.store.URL(key),
		ContentType: mt.String(),
		Size:        len(data),
	})
	return nil
}

func tooLarge(limit int64) error {
	return &apperr.Error{Kind: apperr.KindTooLarge, Message: fmt.Sprintf("file exceeds %d bytes", limit)}
}
