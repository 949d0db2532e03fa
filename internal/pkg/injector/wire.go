//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"
	"github.com/lk2023060901/tomato-share/internal/conf"
	"github.com/lk2023060901/tomato-share/internal/data"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/metrics"
	"github.com/lk2023060901/tomato-share/internal/pkg/sse"
	"github.com/lk2023060901/tomato-share/internal/server"
	"github.com/lk2023060901/tomato-share/internal/share/service"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	// Data layer
	dataProviderSet,

	// Use cases
	useCaseProviderSet,

	// HTTP/gRPC services
	httpServiceProviderSet,

	// Servers
	serverProviderSet,
)

// Data layer providers
var dataProviderSet = wire.NewSet(
	provideData,
	provideHealthChecker,
	data.NewObjectStore,
	data.NewRecordCache,
	data.NewRecordRepo,
	provideStorageAdapter,
)

// Use case providers
var useCaseProviderSet = wire.NewSet(
	provideZapLogger,
	provideTransferClient,
	provideWorkerPool,
)

// HTTP/gRPC service providers
var httpServiceProviderSet = wire.NewSet(
	provideBundle,
	provideRenderer,
	metrics.New,
	sse.NewHub,
	provideFileService,
	service.NewPageService,
	provideGRPCFileService,
)

// Server providers
var serverProviderSet = wire.NewSet(
	server.NewHTTPServer,
	server.NewGRPCServer,
)

// InitializeApp initializes the application with Wire
func InitializeApp(config *conf.Config, log *logger.Logger) (*App, func(), error) {
	wire.Build(ProviderSet, newApp)
	return nil, nil, nil
}
