package service

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/tomato-share/internal/pkg/errors"
	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
	"github.com/lk2023060901/tomato-share/internal/pkg/response"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"github.com/lk2023060901/tomato-share/internal/web"
	"go.uber.org/zap"
)

// PageService 上传页与预览页
type PageService struct {
	renderer *web.Renderer
	logger   *zap.Logger
}

func NewPageService(renderer *web.Renderer, logger *zap.Logger) *PageService {
	return &PageService{renderer: renderer, logger: logger.Named("page")}
}

type uploadPage struct {
	MaxSize int64
	Accept  string
}

type viewerPage struct {
	ID              string
	OfficeViewerURL string
}

// RegisterRoutes 页面路由与兜底路由
func (p *PageService) RegisterRoutes(r *gin.Engine) {
	r.GET("/", p.Upload)
	r.GET("/view/:id", p.Viewer)
	r.NoRoute(p.NoRoute)
}

func (p *PageService) Upload(c *gin.Context) {
	p.render(c, web.PageUpload, &web.Page{
		Script: "upload.js",
		Data:   uploadPage{MaxSize: biz.MaxUploadSize, Accept: biz.AcceptedExtensions},
	})
}

// Viewer 页面骨架，记录由脚本通过 API 加载
func (p *PageService) Viewer(c *gin.Context) {
	p.render(c, web.PageViewer, &web.Page{
		Script: "viewer.js",
		Data:   viewerPage{ID: c.Param("id"), OfficeViewerURL: biz.OfficeViewerURL},
	})
}

// NoRoute 未知 API 路径返回 JSON 404，其余路径重定向到上传页
func (p *PageService) NoRoute(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.ErrorWithCode(c, apperrors.ErrNotFound)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (p *PageService) render(c *gin.Context, name string, page *web.Page) {
	page.Lang = i18n.LangFromContext(c.Request.Context())

	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, name, page); err != nil {
		p.logger.Error("render page failed", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
