package media

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"social-backend/internal/shared/httpx"
)

type memStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Put(_ context.Context, key, contentType string, data []byte) error {
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStorage) URL(key string) string { return "https://cdn.test/media/" + key }

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "pic.bin")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(httpx.WithUserID(req.Context(), 11))
}

func TestUploadStoresImage(t *testing.T) {
	store := newMemStorage()
	h := httpx.Wrap(NewHandler(store, 1<<20).Upload)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "file", pngBytes))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var env struct {
		Data uploadResp `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(env.Data.URL, "https://cdn.test/media/users/11/") || !strings.HasSuffix(env.Data.URL, ".png") {
		t.Fatalf("url = %q", env.Data.URL)
	}
	if env.Data.ContentType != "image/png" || len(store.objects) != 1 {
		t.Fatalf("resp = %+v, objects = %d", env.Data, len(store.objects))
	}
}

func TestUploadRejections(t *testing.T) {
	cases := []struct {
		name  string
		field string
		data  []byte
		limit int64
		code  int
	}{
		{"not an image", "file", []byte("just some text"), 1 << 20, http.StatusBadRequest},
		{"wrong field", "upload", pngBytes, 1 << 20, http.StatusBadRequest},
		{"too large", "file", append(append([]byte{}, pngBytes...), make([]byte, 200)...), 100, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		store := newMemStorage()
		h := httpx.Wrap(NewHandler(store, c.limit).Upload)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, uploadRequest(t, c.field, c.data))
		if rr.Code != c.code {
			t.Fatalf("%s: status = %d, want %d (%s)", c.name, rr.Code, c.code, rr.Body.String())
		}
		if len(store.objects) != 0 {
			t.Fatalf("%s: object stored", c.name)
		}
	}
}
