package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/tomato-share/internal/conf"
	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/metrics"
	"github.com/lk2023060901/tomato-share/internal/pkg/validator"
	"github.com/lk2023060901/tomato-share/internal/share/service"
	"github.com/lk2023060901/tomato-share/internal/web"
	"go.uber.org/zap"
)

// HealthChecker /health 依赖的检查项，例如数据库
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	bundle *i18n.Bundle,
	m *metrics.Metrics,
	health HealthChecker,
	fileService *service.FileService,
	pageService *service.PageService,
) *HTTPServer {
	gin.SetMode(config.Server.Mode)

	router := gin.New()
	// multipart 超出部分落盘，单文件上限由业务层校验
	router.MaxMultipartMemory = 32 << 20
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, logger.MiddlewareOptions{
		SkipPaths:        []string{"/health", config.Metrics.Path},
		SkipPathPrefixes: []string{"/static/"},
		ClientIP:         validator.NormalizeIP,
	}))
	router.Use(i18n.Middleware(bundle))
	if config.Metrics.Enabled {
		router.Use(m.Middleware())
		router.GET(config.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.StaticFS("/static", web.StaticFS())

	// API routes
	api := router.Group("/api/v1")
	fileService.RegisterRoutes(api)

	// Pages + NoRoute
	pageService.RegisterRoutes(router)

	return &HTTPServer{
		server: &http.Server{
			Addr:              config.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       config.Server.ReadTimeout,
			WriteTimeout:      config.Server.WriteTimeout,
		},
		router: router,
		logger: log,
	}
}

// Handler 返回路由，测试使用
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
