package injector

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/tomato-share/internal/conf"
	"github.com/lk2023060901/tomato-share/internal/data"
	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/metrics"
	"github.com/lk2023060901/tomato-share/internal/pkg/sse"
	"github.com/lk2023060901/tomato-share/internal/pkg/workerpool"
	"github.com/lk2023060901/tomato-share/internal/server"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	sharedata "github.com/lk2023060901/tomato-share/internal/share/data"
	"github.com/lk2023060901/tomato-share/internal/share/service"
	"github.com/lk2023060901/tomato-share/internal/web"
	"go.uber.org/zap"
)

// initTimeout 启动时创建存储桶、迁移表的时限
const initTimeout = 30 * time.Second

// Provider functions for complex dependencies

func provideData(config *conf.Config, log *logger.Logger) (*data.Data, func(), error) {
	return data.NewData(config, log)
}

func provideHealthChecker(d *data.Data) server.HealthChecker {
	return d.DB
}

func provideZapLogger(log *logger.Logger) *zap.Logger {
	return log.Logger
}

func provideStorageAdapter(
	store sharedata.ObjectStore,
	repo sharedata.RecordRepo,
	config *conf.Config,
	log *zap.Logger,
) biz.StorageAdapter {
	return sharedata.NewStorageAdapter(store, repo, config.Storage.KeyPrefix, log)
}

// provideTransferClient 创建并初始化传输客户端；初始化失败则启动失败
func provideTransferClient(
	adapter biz.StorageAdapter,
	config *conf.Config,
	log *zap.Logger,
) (*biz.FileTransferClient, error) {
	client := biz.NewFileTransferClient(adapter, log)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := client.Initialize(ctx, biz.TransferConfig{PublicDomain: config.Share.PublicDomain}); err != nil {
		return nil, fmt.Errorf("initialize file transfer client: %w", err)
	}
	return client, nil
}

func provideWorkerPool(config *conf.Config, log *zap.Logger) (*workerpool.Pool, func(), error) {
	cfg := config.Share.TransferWorkers
	pool, err := workerpool.New(&cfg, log.Named("transfer-pool"))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := pool.Shutdown(config.Share.UploadTimeout); err != nil {
			log.Warn("worker pool shutdown", zap.Error(err))
		}
	}
	return pool, cleanup, nil
}

func provideBundle(config *conf.Config, log *zap.Logger) (*i18n.Bundle, error) {
	bundle, err := i18n.Load(config.I18n.DefaultLang, log)
	if err != nil {
		return nil, err
	}
	i18n.SetDefault(bundle)
	return bundle, nil
}

func provideRenderer(bundle *i18n.Bundle, log *zap.Logger) (*web.Renderer, error) {
	return web.NewRenderer(bundle, log)
}

func provideFileService(
	transfer *biz.FileTransferClient,
	pool *workerpool.Pool,
	hub *sse.Hub,
	m *metrics.Metrics,
	log *zap.Logger,
	config *conf.Config,
) *service.FileService {
	return service.NewFileService(transfer, pool, hub, m, log, service.Options{
		UploadTimeout: config.Share.UploadTimeout,
		PublicBaseURL: config.Server.PublicBaseURL,
	})
}

func provideGRPCFileService(
	transfer *biz.FileTransferClient,
	m *metrics.Metrics,
	log *zap.Logger,
) service.FileServiceServer {
	return service.NewGRPCFileService(transfer, m, log)
}

func newApp(
	config *conf.Config,
	log *logger.Logger,
	httpServer *server.HTTPServer,
	grpcServer *server.GRPCServer,
	transfer *biz.FileTransferClient,
) *App {
	return &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		GRPCServer: grpcServer,
		Transfer:   transfer,
	}
}
