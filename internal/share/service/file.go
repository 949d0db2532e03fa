package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/tomato-share/internal/pkg/errors"
	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/metrics"
	"github.com/lk2023060901/tomato-share/internal/pkg/response"
	"github.com/lk2023060901/tomato-share/internal/pkg/sse"
	"github.com/lk2023060901/tomato-share/internal/pkg/workerpool"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"go.uber.org/zap"
)

// Options FileService 的可调参数
type Options struct {
	// UploadTimeout 单次上传（含写记录）的总时限
	UploadTimeout time.Duration
	// PublicBaseURL 生成分享链接的站点地址，为空时取请求的 Host
	PublicBaseURL string
}

// FileService 文件上传、查询、二维码与上传进度接口
type FileService struct {
	transfer *biz.FileTransferClient
	pool     *workerpool.Pool
	hub      *sse.Hub
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options
}

func NewFileService(
	transfer *biz.FileTransferClient,
	pool *workerpool.Pool,
	hub *sse.Hub,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *FileService {
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 5 * time.Minute
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &FileService{
		transfer: transfer,
		pool:     pool,
		hub:      hub,
		metrics:  m,
		logger:   logger.Named("file"),
		opts:     opts,
	}
}

// RegisterRoutes 注册 /api/v1 下的路由
func (s *FileService) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/files", s.Upload)
	r.GET("/files/:id", s.Get)
	r.GET("/files/:id/qrcode.png", s.QRCode)
	r.GET("/uploads/:upload_id/events", s.Events)
}

// FileResponse 文件记录 + 预览模型
type FileResponse struct {
	*biz.FileRecord
	Viewer  *biz.Viewer `json:"viewer"`
	ViewURL string      `json:"view_url"`
}

func (s *FileService) toResponse(c *gin.Context, record *biz.FileRecord) *FileResponse {
	return &FileResponse{
		FileRecord: record,
		Viewer:     biz.NewViewer(record),
		ViewURL:    s.viewURL(c, record.ID),
	}
}

// viewURL 预览页的绝对地址
func (s *FileService) viewURL(c *gin.Context, id string) string {
	base := s.opts.PublicBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/view/" + id
}

// Upload 处理 multipart 上传: file 为文件，upload_id 可选，用于订阅进度
func (s *FileService) Upload(c *gin.Context) {
	start := time.Now()

	header, err := c.FormFile("file")
	if err != nil {
		s.metrics.ObserveUpload(metrics.UploadRejected, 0, 0)
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInvalidParams, "file is required"))
		return
	}

	ctx := c.Request.Context()
	uploadID := c.PostForm("upload_id")
	if uploadID != "" && !validUploadID(uploadID) {
		uploadID = ""
	}
	if uploadID != "" {
		ctx = logger.WithUploadID(ctx, uploadID)
		c.Request = c.Request.WithContext(ctx)
	}
	progress := newProgressPublisher(s.hub, uploadID)
	log := s.logger.With(zap.String("upload_id", uploadID), zap.String("name", header.Filename))

	contentType := header.Header.Get("Content-Type")
	if err := biz.ValidateUpload(header.Filename, contentType, header.Size); err != nil {
		log.Info("upload rejected", zap.Int64("size", header.Size), zap.String("reason", err.Error()))
		s.metrics.ObserveUpload(metrics.UploadRejected, header.Size, time.Since(start))
		s.fail(c, progress, toAppError(err))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.metrics.ObserveUpload(metrics.UploadFailed, header.Size, time.Since(start))
		s.fail(c, progress, apperrors.Wrap(err, apperrors.ErrInvalidParams))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	// 任务受 ctx 约束，超时或客户端断开后会尽快返回
	result := <-s.pool.SubmitWithResult(func() (interface{}, error) {
		return s.transfer.UploadFile(ctx, &biz.FileUpload{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: contentType,
			Reader:      file,
		}, progress.Func())
	})
	if result.Error != nil {
		log.Warn("upload failed", zap.Error(result.Error))
		s.metrics.ObserveUpload(metrics.UploadFailed, header.Size, time.Since(start))
		s.fail(c, progress, toAppError(result.Error))
		return
	}

	record, ok := result.Data.(*biz.FileRecord)
	if !ok || record == nil {
		s.metrics.ObserveUpload(metrics.UploadFailed, header.Size, time.Since(start))
		s.fail(c, progress, apperrors.New(apperrors.ErrUploadFailed))
		return
	}

	s.metrics.ObserveUpload(metrics.UploadSuccess, record.Size, time.Since(start))
	resp := s.toResponse(c, record)
	progress.completed(record.ID, resp.ViewURL)
	response.Created(c, resp)
}

// fail 写错误响应，并通知进度订阅者
func (s *FileService) fail(c *gin.Context, progress *progressPublisher, err *apperrors.AppError) {
	message := i18n.T(c.Request.Context(), apperrors.GetKey(err.Code))
	progress.failed(message)
	response.HandleError(c, err)
}

// Get 查询文件记录，不存在时返回 404
func (s *FileService) Get(c *gin.Context) {
	record := s.transfer.GetFileInfo(c.Request.Context(), c.Param("id"))
	s.metrics.ObserveLookup(record != nil)
	if record == nil {
		response.HandleError(c, apperrors.New(apperrors.ErrFileNotFound, c.Param("id")))
		return
	}
	response.Success(c, s.toResponse(c, record))
}

// Events 订阅上传进度（SSE），收到 completed 或 failed 后结束
func (s *FileService) Events(c *gin.Context) {
	uploadID := c.Param("upload_id")
	if !validUploadID(uploadID) {
		response.HandleError(c, apperrors.New(apperrors.ErrInvalidParams, fmt.Sprintf("invalid upload id %q", uploadID)))
		return
	}

	stream := sse.NewStream(c, s.hub).
		WithResource(UploadResource(uploadID)).
		CloseOn(EventCompleted, EventFailed).
		OnError(func(err error) {
			s.logger.Debug("progress stream error", zap.String("upload_id", uploadID), zap.Error(err))
		}).
		Build()

	stream.StartStreaming()
}
