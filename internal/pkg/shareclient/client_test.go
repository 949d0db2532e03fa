package shareclient

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileJSON = `{"code":0,"data":{
	"id":"abc-123","name":"invoice.pdf","url":"https://files.example.com/invoice.pdf",
	"size":%d,"mime_type":"application/pdf","created_at":"2026-05-01T08:00:00Z",
	"view_url":"https://share.example.com/view/abc-123",
	"viewer":{"kind":"pdf","embed_url":"https://files.example.com/invoice.pdf"}}}`

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", WithLanguage("en"))
	require.NoError(t, err)
	return c
}

func TestUploadFile(t *testing.T) {
	var gotName, gotType, gotBody string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/files", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)

		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(strings.Replace(fileJSON, "%d", "17", 1)))
	})

	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n%%EOF\n"), 0o644))

	var last atomic.Int64
	f, err := c.UploadFile(t.Context(), path, func(sent, total int64) { last.Store(sent) })
	require.NoError(t, err)

	assert.Equal(t, "invoice.pdf", gotName)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "%PDF-1.7\n%%EOF\n", gotBody)
	assert.Equal(t, int64(len(gotBody)), last.Load())

	assert.Equal(t, "abc-123", f.ID)
	assert.Equal(t, int64(17), f.Size)
	assert.Equal(t, "pdf", f.ViewerKind)
	assert.Equal(t, "https://share.example.com/view/abc-123", f.ViewURL)
	assert.Equal(t, 2026, f.CreatedAt.Year())
}

func TestUploadValidatesLocally(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	_, err := c.Upload(t.Context(), "notes.txt", "text/plain", strings.NewReader("x"), 1, nil)
	assert.ErrorIs(t, err, biz.ErrInvalidFileType)

	_, err = c.Upload(t.Context(), "big.pdf", "application/pdf", strings.NewReader(""), biz.MaxUploadSize+1, nil)
	assert.ErrorIs(t, err, biz.ErrFileTooLarge)

	assert.Zero(t, calls.Load())
}

func TestInfo(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		if r.URL.Path != "/api/v1/files/abc-123" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":2003,"message":"Could not load file information.","data":{}}`))
			return
		}
		_, _ = w.Write([]byte(strings.Replace(fileJSON, "%d", "42", 1)))
	})

	f, err := c.Info(t.Context(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", f.Name)
	assert.Equal(t, int64(42), f.Size)

	_, err = c.Info(t.Context(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, 2003, apiErr.Code)
	assert.Equal(t, "Could not load file information.", apiErr.Message)
}

func TestParseEnvelopeNotJSON(t *testing.T) {
	_, err := parseEnvelope(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestNewRejectsInvalidURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
}

func TestQRCodeURL(t *testing.T) {
	c, err := New("https://share.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://share.example.com/api/v1/files/a%2Fb/qrcode.png", c.QRCodeURL("a/b"))
}
