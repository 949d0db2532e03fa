package biz

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAdapter 内存实现，记录调用次数
type fakeAdapter struct {
	mu        sync.Mutex
	records   map[string]*FileRecord
	uploads   int
	initCalls int
	uploadErr error
	getErr    error
	rawURL    string
	chunk     int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{records: map[string]*FileRecord{}, rawURL: "http://minio.internal:9000/tomato-share/", chunk: 1 << 20}
}

func (f *fakeAdapter) Init(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return nil
}

func (f *fakeAdapter) Upload(_ context.Context, req *UploadRequest) (*FileRecord, error) {
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	var transferred int64
	buf := make([]byte, f.chunk)
	for {
		n, err := req.File.Reader.Read(buf)
		if n > 0 {
			transferred += int64(n)
			req.OnProgress(transferred, req.File.Size)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	id := "id-" + req.File.Name
	rec := &FileRecord{
		ID:        id,
		Name:      req.File.Name,
		URL:       req.NormalizeURL(f.rawURL + req.File.Name),
		Size:      transferred,
		MimeType:  req.File.ContentType,
		CreatedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
	f.mu.Lock()
	f.records[id] = rec
	f.mu.Unlock()
	return rec, nil
}

func (f *fakeAdapter) GetByID(_ context.Context, id string) (*FileRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	cp := *rec
	return &cp, nil
}

func newClient(t *testing.T, adapter *fakeAdapter) *FileTransferClient {
	t.Helper()
	c := NewFileTransferClient(adapter, zap.NewNop())
	require.NoError(t, c.Initialize(context.Background(), TransferConfig{PublicDomain: "files.tomato.example"}))
	return c
}

func upload(name, contentType string, size int) *FileUpload {
	return &FileUpload{Name: name, ContentType: contentType, Size: int64(size), Reader: bytes.NewReader(make([]byte, size))}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		size        int64
		want        error
	}{
		{"pdf by mime", "invoice", "application/pdf", 1024, nil},
		{"pdf by extension", "invoice.PDF", "", 1024, nil},
		{"xlsx mime", "data.bin", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", 1024, nil},
		{"xls mime", "data.bin", "application/vnd.ms-excel", 1024, nil},
		{"csv extension", "report.CSV", "text/csv", 1024, nil},
		{"exactly max", "a.pdf", "application/pdf", MaxUploadSize, nil},
		{"image rejected", "photo.png", "image/png", 1024, ErrInvalidFileType},
		{"word rejected", "a.docx", "application/msword", 1024, ErrInvalidFileType},
		{"oversized pdf", "big.pdf", "application/pdf", 25 << 20, ErrFileTooLarge},
		{"oversized xlsx", "big.xlsx", "", MaxUploadSize + 1, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.file, tt.contentType, tt.size)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewURLNormalizer("https://files.tomato.example/")
	assert.Equal(t, "files.tomato.example", n.Host())

	tests := []struct {
		in   string
		want string
	}{
		{"http://minio.internal:9000/bucket/a.pdf?v=1", "https://files.tomato.example/bucket/a.pdf?v=1"},
		{"https://files.tomato.example/bucket/a.pdf", "https://files.tomato.example/bucket/a.pdf"},
		{"HTTP://old-domain.com/x%20y.xlsx", "https://files.tomato.example/x%20y.xlsx"},
		{"http://%zz/broken", "https://%zz/broken"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := n.Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, n.Normalize(got), "normalize must be idempotent")
			assert.True(t, strings.HasPrefix(got, "https://"))
		})
	}
}

func TestNormalizeWithoutDomain(t *testing.T) {
	n := NewURLNormalizer("")
	assert.Equal(t, "https://bucket.s3.amazonaws.com/k.pdf", n.Normalize("http://bucket.s3.amazonaws.com/k.pdf"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 100))
	assert.Equal(t, 0, Percent(10, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(100, 100))
	assert.Equal(t, 100, Percent(150, 100))
}

func TestInitializeIdempotent(t *testing.T) {
	adapter := newFakeAdapter()
	c := NewFileTransferClient(adapter, nil)
	assert.False(t, c.Initialized())

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Initialize(context.Background(), TransferConfig{PublicDomain: "a.example"}))
	}
	assert.True(t, c.Initialized())
	assert.Equal(t, 1, adapter.initCalls)
}

func TestUploadBeforeInitialize(t *testing.T) {
	c := NewFileTransferClient(newFakeAdapter(), nil)

	_, err := c.UploadFile(context.Background(), upload("a.pdf", "application/pdf", 10), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Nil(t, c.GetFileInfo(context.Background(), "x"))
}

func TestUploadFileReportsProgress(t *testing.T) {
	adapter := newFakeAdapter()
	c := newClient(t, adapter)

	var percents []int
	rec, err := c.UploadFile(context.Background(), upload("invoice.pdf", "application/pdf", 2<<20), func(p int) {
		percents = append(percents, p)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{50, 100}, percents)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "https://files.tomato.example/tomato-share/invoice.pdf", rec.URL)
	assert.Equal(t, int64(2<<20), rec.Size)
	assert.Equal(t, ViewerPDF, NewViewer(rec).Kind)
}

func TestUploadFileHidesCause(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.uploadErr = errors.New("dial tcp 10.0.0.1:9000: connection refused")
	c := newClient(t, adapter)

	rec, err := c.UploadFile(context.Background(), upload("a.pdf", "application/pdf", 10), nil)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Nil(t, errors.Unwrap(err))
	assert.NotContains(t, err.Error(), "connection refused")

	_, err = c.UploadFile(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestGetFileInfoRoundTrip(t *testing.T) {
	adapter := newFakeAdapter()
	c := newClient(t, adapter)

	rec, err := c.UploadFile(context.Background(), upload("report.xlsx", "application/vnd.ms-excel", 512), nil)
	require.NoError(t, err)

	// 域名变更前写入的历史记录在读取时被改写
	adapter.records[rec.ID].URL = "http://legacy.example.com/tomato-share/report.xlsx"

	got := c.GetFileInfo(context.Background(), rec.ID)
	require.NotNil(t, got)
	assert.Equal(t, "report.xlsx", got.Name)
	assert.Equal(t, int64(512), got.Size)
	assert.Equal(t, "application/vnd.ms-excel", got.MimeType)
	assert.Equal(t, "https://files.tomato.example/tomato-share/report.xlsx", got.URL)
}

func TestGetFileInfoAbsent(t *testing.T) {
	adapter := newFakeAdapter()
	c := newClient(t, adapter)

	assert.Nil(t, c.GetFileInfo(context.Background(), "does-not-exist"))
	assert.Nil(t, c.GetFileInfo(context.Background(), ""))

	adapter.getErr = ErrPermissionDenied
	assert.Nil(t, c.GetFileInfo(context.Background(), "x"))

	adapter.getErr = errors.New("connection reset")
	assert.Nil(t, c.GetFileInfo(context.Background(), "x"))
}

func TestNewViewer(t *testing.T) {
	created := time.Date(2026, 1, 2, 12, 0, 0, 0, time.Local)

	pdf := NewViewer(&FileRecord{Name: "invoice.pdf", URL: "https://f.example/a.pdf", Size: 2 * 1024 * 1024, CreatedAt: created})
	assert.Equal(t, ViewerPDF, pdf.Kind)
	assert.False(t, pdf.IsSpreadsheet())
	assert.Equal(t, "https://f.example/a.pdf", pdf.EmbedURL)
	assert.Equal(t, "2.00 MB", pdf.SizeLabel)
	assert.Equal(t, "2026-01-02", pdf.CreatedDate)

	sheet := NewViewer(&FileRecord{Name: "Report.XLSX", URL: "https://f.example/r.xlsx?x=1&y=2", Size: 1536})
	assert.Equal(t, ViewerSpreadsheet, sheet.Kind)
	assert.Equal(t, OfficeViewerURL+url.QueryEscape("https://f.example/r.xlsx?x=1&y=2"), sheet.EmbedURL)
	assert.Equal(t, "https://f.example/r.xlsx?x=1&y=2", sheet.DownloadURL)
	assert.Equal(t, "0.00 MB", sheet.SizeLabel)
	assert.Empty(t, sheet.CreatedDate)
}
