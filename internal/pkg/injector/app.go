package injector

import (
	"context"
	"errors"

	"github.com/lk2023060901/tomato-share/internal/conf"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/server"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"go.uber.org/zap"
)

// App encapsulates all application dependencies
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	GRPCServer *server.GRPCServer
	Transfer   *biz.FileTransferClient
}

// Start 在后台启动 HTTP 与 gRPC 服务，任一服务异常退出时错误写入返回的 channel
func (a *App) Start() <-chan error {
	errCh := make(chan error, 2)

	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			errCh <- err
		}
	}()

	if a.GRPCServer.Enabled() {
		go func() {
			if err := a.GRPCServer.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	a.Logger.Info("servers started successfully",
		zap.String("http_addr", a.Config.Server.Addr()),
		zap.Bool("grpc_enabled", a.GRPCServer.Enabled()),
	)
	return errCh
}

// Stop 优雅关闭；ctx 超时后强制返回
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.GRPCServer.Enabled() {
		a.GRPCServer.Stop()
	}
	if err := a.HTTPServer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
