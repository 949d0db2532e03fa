package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/tomato-share/internal/pkg/errors"
	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
	"github.com/lk2023060901/tomato-share/internal/pkg/metrics"
	"github.com/lk2023060901/tomato-share/internal/pkg/sse"
	"github.com/lk2023060901/tomato-share/internal/pkg/workerpool"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"github.com/lk2023060901/tomato-share/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryAdapter 内存存储，分 4 次读完文件以产生进度
type memoryAdapter struct {
	mu        sync.Mutex
	records   map[string]*biz.FileRecord
	uploads   int
	uploadErr error
}

func newMemoryAdapter() *memoryAdapter {
	return &memoryAdapter{records: map[string]*biz.FileRecord{}}
}

func (a *memoryAdapter) Upload(_ context.Context, req *biz.UploadRequest) (*biz.FileRecord, error) {
	a.mu.Lock()
	a.uploads++
	a.mu.Unlock()
	if a.uploadErr != nil {
		return nil, a.uploadErr
	}

	content, err := io.ReadAll(req.File.Reader)
	if err != nil {
		return nil, err
	}
	size := int64(len(content))
	for i := int64(1); i <= 4; i++ {
		req.OnProgress(size*i/4, size)
	}

	record := &biz.FileRecord{
		ID:        "f-" + strings.ReplaceAll(req.File.Name, ".", "-"),
		Name:      req.File.Name,
		URL:       req.NormalizeURL("http://minio.local:9000/tomato-share/shared/" + req.File.Name),
		Size:      size,
		MimeType:  req.File.ContentType,
		CreatedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	a.mu.Lock()
	a.records[record.ID] = record
	a.mu.Unlock()
	cp := *record
	return &cp, nil
}

func (a *memoryAdapter) GetByID(_ context.Context, id string) (*biz.FileRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.records[id]
	if !ok {
		return nil, biz.ErrFileNotFound
	}
	cp := *record
	return &cp, nil
}

func (a *memoryAdapter) uploadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploads
}

type testEnv struct {
	router  *gin.Engine
	adapter *memoryAdapter
	hub     *sse.Hub
	files   *FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bundle, err := i18n.Load(i18n.LangZH, nil)
	require.NoError(t, err)
	i18n.SetDefault(bundle)

	adapter := newMemoryAdapter()
	transfer := biz.NewFileTransferClient(adapter, zap.NewNop())
	require.NoError(t, transfer.Initialize(t.Context(), biz.TransferConfig{PublicDomain: "files.example.com"}))

	pool, err := workerpool.New(&workerpool.Config{Workers: 2, MaxBlockingTasks: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Shutdown(time.Second) })

	renderer, err := web.NewRenderer(bundle, nil)
	require.NoError(t, err)

	hub := sse.NewHub()
	files := NewFileService(transfer, pool, hub, metrics.New(), zap.NewNop(), Options{
		UploadTimeout: 10 * time.Second,
		PublicBaseURL: "https://share.example.com/",
	})
	pages := NewPageService(renderer, zap.NewNop())

	router := gin.New()
	router.Use(i18n.Middleware(bundle))
	files.RegisterRoutes(router.Group("/api/v1"))
	pages.RegisterRoutes(router)

	return &testEnv{router: router, adapter: adapter, hub: hub, files: files}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, name string, content []byte, uploadID string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if uploadID != "" {
		require.NoError(t, w.WriteField("upload_id", uploadID))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) (envelope, map[string]interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return env, data
}

func TestUploadPDF(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "invoice.pdf", []byte("%PDF-1.7 invoice"), ""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp, data := decode(t, rec)
	assert.Equal(t, apperrors.Success, resp.Code)
	assert.Equal(t, "f-invoice-pdf", data["id"])
	assert.Equal(t, "invoice.pdf", data["name"])
	assert.Equal(t, "https://files.example.com/tomato-share/shared/invoice.pdf", data["url"])
	assert.Equal(t, "https://share.example.com/view/f-invoice-pdf", data["view_url"])

	viewer := data["viewer"].(map[string]interface{})
	assert.Equal(t, "pdf", viewer["kind"])
	assert.Equal(t, data["url"], viewer["embed_url"])
}

func TestUploadSpreadsheet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "report.xlsx", []byte("PK spreadsheet"), ""))
	require.Equal(t, http.StatusCreated, rec.Code)

	_, data := decode(t, rec)
	viewer := data["viewer"].(map[string]interface{})
	assert.Equal(t, "spreadsheet", viewer["kind"])
	assert.Equal(t,
		"https://view.officeapps.live.com/op/embed.aspx?src=https%3A%2F%2Ffiles.example.com%2Ftomato-share%2Fshared%2Freport.xlsx",
		viewer["embed_url"])
}

func TestUploadRejected(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  []byte
		wantCode int
		wantMsg  string
	}{
		{"too large pdf", "big.pdf", bytes.Repeat([]byte("a"), 25<<20), apperrors.ErrFileTooLarge, "文件过大，请上传 20MB 以内的文件"},
		{"unsupported type", "notes.txt", []byte("hello"), apperrors.ErrFileTypeNotAllowed, "仅支持 PDF 或 Excel 文件"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(uploadRequest(t, tt.file, tt.content, ""))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp, _ := decode(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Zero(t, env.adapter.uploadCount(), "storage must not be called")
		})
	}
}

func TestUploadWithoutFile(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", strings.NewReader(""))
	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp, _ := decode(t, rec)
	assert.Equal(t, apperrors.ErrInvalidParams, resp.Code)
}

func TestUploadStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.adapter.uploadErr = errors.New("connection reset by peer")

	rec := env.do(uploadRequest(t, "invoice.pdf", []byte("pdf"), ""))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	resp, _ := decode(t, rec)
	assert.Equal(t, apperrors.ErrUploadFailed, resp.Code)
	assert.Equal(t, "上传失败，请检查网络或重试。", resp.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestUploadPublishesProgress(t *testing.T) {
	env := newTestEnv(t)
	uploadID := "8f14e45f-ceea-467f-a9a8-5c1d8e2b1a10"

	client := &sse.Client{ID: "test", Channel: make(chan sse.Event, 16), Resource: UploadResource(uploadID)}
	env.hub.Register(client)
	defer env.hub.Unregister(client)

	rec := env.do(uploadRequest(t, "invoice.pdf", []byte("12345678"), uploadID))
	require.Equal(t, http.StatusCreated, rec.Code)

	var types []string
	var percents []interface{}
	for len(client.Channel) > 0 {
		event := <-client.Channel
		types = append(types, event.Type)
		if event.Type == EventProgress {
			percents = append(percents, event.Data.(map[string]interface{})["percent"])
		}
	}
	assert.Equal(t, []string{EventProgress, EventProgress, EventProgress, EventProgress, EventCompleted}, types)
	assert.Equal(t, []interface{}{25, 50, 75, 100}, percents)
}

func TestUploadFailurePublishesFailed(t *testing.T) {
	env := newTestEnv(t)
	uploadID := "upload-failed-1"

	client := &sse.Client{ID: "test", Channel: make(chan sse.Event, 16), Resource: UploadResource(uploadID)}
	env.hub.Register(client)
	defer env.hub.Unregister(client)

	rec := env.do(uploadRequest(t, "notes.txt", []byte("x"), uploadID))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Len(t, client.Channel, 1)
	event := <-client.Channel
	assert.Equal(t, EventFailed, event.Type)
	assert.Equal(t, "仅支持 PDF 或 Excel 文件", event.Data.(map[string]interface{})["message"])
}

func TestProgressPublisherSkipsRepeats(t *testing.T) {
	hub := sse.NewHub()
	client := &sse.Client{ID: "c", Channel: make(chan sse.Event, 16), Resource: UploadResource("abcdefgh")}
	hub.Register(client)

	p := newProgressPublisher(hub, "abcdefgh")
	fn := p.Func()
	for _, v := range []int{10, 10, 10, 40, 40, 100} {
		fn(v)
	}
	assert.Len(t, client.Channel, 3)

	var nilPublisher *progressPublisher
	assert.Nil(t, nilPublisher.Func())
	assert.Nil(t, newProgressPublisher(hub, ""))
	nilPublisher.completed("id", "url")
	nilPublisher.failed("message")
}

func TestGetFile(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(uploadRequest(t, "invoice.pdf", []byte("pdf"), "")).Code)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/f-invoice-pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	_, data := decode(t, rec)
	assert.Equal(t, "invoice.pdf", data["name"])
	assert.Equal(t, float64(3), data["size"])
}

func TestGetFileNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp, _ := decode(t, rec)
	assert.Equal(t, apperrors.ErrFileNotFound, resp.Code)
	assert.Equal(t, "无法获取文件信息，可能是ID无效或已被删除。", resp.Message)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/does-not-exist", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, _ = decode(t, env.do(req))
	assert.Equal(t, "Could not load file information. The ID may be invalid or the file was deleted.", resp.Message)
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(uploadRequest(t, "invoice.pdf", []byte("pdf"), "")).Code)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/f-invoice-pdf/qrcode.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/missing/qrcode.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsRejectsInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/uploads/bad!id/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	uploadID := "stream-upload-1"
	resp, err := http.Get(srv.URL + "/api/v1/uploads/" + uploadID + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	newProgressPublisher(env.hub, uploadID).completed("f-1", "https://share.example.com/view/f-1")

	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(rest), "event: completed\n")
	assert.Contains(t, string(rest), `"id":"f-1"`)
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "番茄快传")
	assert.Contains(t, rec.Body.String(), `accept=".pdf,.xlsx,.xls,.csv"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/view/abc?lang=en", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-file-id="abc"`)
	assert.Contains(t, rec.Body.String(), "Loading file...")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/view/does-not-exist", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-file-id="does-not-exist"`)
	assert.Contains(t, body, "文件未找到")
	assert.Contains(t, body, "您访问的文件可能已被删除，或者链接有误。<br/>无法获取文件信息，可能是ID无效或已被删除。")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/view/does-not-exist?lang=en", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The file may have been deleted, or the link is wrong.<br/>Could not load file information.")
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/some/where", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v2/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp, _ := decode(t, rec)
	assert.Equal(t, apperrors.ErrNotFound, resp.Code)
}
