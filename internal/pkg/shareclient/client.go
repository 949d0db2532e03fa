// Package shareclient 番茄快传 HTTP API 的 Go 客户端
package shareclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

// File 服务端返回的文件记录与预览信息
type File struct {
	ID         string
	Name       string
	URL        string
	Size       int64
	MimeType   string
	CreatedAt  time.Time
	ViewURL    string
	ViewerKind string
	EmbedURL   string
}

// APIError 服务端返回的非 0 业务码
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shareclient: status %d, code %d: %s", e.Status, e.Code, e.Message)
}

// ProgressFunc 已发送字节数与文件总大小
type ProgressFunc func(sent, total int64)

type Client struct {
	baseURL    string
	httpClient *http.Client
	lang       string
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLanguage 错误信息语言（zh/en）
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("shareclient: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadFile 校验并上传本地文件
func (c *Client) UploadFile(ctx context.Context, path string, onProgress ProgressFunc) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	return c.Upload(ctx, filepath.Base(path), mtype.String(), f, info.Size(), onProgress)
}

// Upload 流式上传，请求体不在内存中整体缓冲。
// 类型和大小先在本地校验，不合规的文件不会发出请求。
func (c *Client) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64, onProgress ProgressFunc) (*File, error) {
	if err := biz.ValidateUpload(name, contentType, size); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// 返回前等待写入协程退出，进度回调不会晚于 Upload 返回
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writeMultipart(mw, name, contentType, &progressReader{
			r: r, total: size, onProgress: onProgress,
		}))
	}()
	defer func() {
		_ = pr.Close()
		<-done
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/files", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("uploading file", zap.String("name", name), zap.Int64("size", size))
	return c.doFile(req)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeMultipart(mw *multipart.Writer, name, contentType string, body io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

// Info 查询文件记录
func (c *Client) Info(ctx context.Context, id string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+"/files/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return c.doFile(req)
}

// QRCodeURL 文件预览链接二维码的地址
func (c *Client) QRCodeURL(id string) string {
	return c.baseURL + apiPrefix + "/files/" + url.PathEscape(id) + "/qrcode.png"
}

func (c *Client) doFile(req *http.Request) (*File, error) {
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	data, err := parseEnvelope(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	return parseFile(data), nil
}

// parseEnvelope 解析 {code, message, data}，code 非 0 时返回 APIError
func parseEnvelope(status int, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &APIError{Status: status, Code: -1, Message: http.StatusText(status)}
	}

	env := gjson.ParseBytes(body)
	code := env.Get("code")
	if !code.Exists() || code.Int() != 0 || status >= http.StatusBadRequest {
		return gjson.Result{}, &APIError{
			Status:  status,
			Code:    int(code.Int()),
			Message: env.Get("message").String(),
		}
	}
	return env.Get("data"), nil
}

func parseFile(data gjson.Result) *File {
	f := &File{
		ID:         data.Get("id").String(),
		Name:       data.Get("name").String(),
		URL:        data.Get("url").String(),
		Size:       data.Get("size").Int(),
		MimeType:   data.Get("mime_type").String(),
		ViewURL:    data.Get("view_url").String(),
		ViewerKind: data.Get("viewer.kind").String(),
		EmbedURL:   data.Get("viewer.embed_url").String(),
	}
	if t, err := time.Parse(time.RFC3339Nano, data.Get("created_at").String()); err == nil {
		f.CreatedAt = t
	}
	return f
}

type progressReader struct {
	r          io.Reader
	sent       int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.sent, p.total)
		}
	}
	return n, err
}
