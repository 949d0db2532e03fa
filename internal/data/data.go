package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/tomato-share/internal/conf"
	"github.com/lk2023060901/tomato-share/internal/pkg/database"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/minio"
	"github.com/lk2023060901/tomato-share/internal/pkg/redis"
	"github.com/lk2023060901/tomato-share/internal/pkg/s3"
	sharedata "github.com/lk2023060901/tomato-share/internal/share/data"
	"go.uber.org/zap"
)

// Data 进程级的外部资源：数据库、对象存储、可选的 Redis
type Data struct {
	DB          *database.DB
	RedisClient *redis.Client
	MinIOClient *minio.Client
	S3Client    *s3.Client
	Logger      *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	d := &Data{Logger: log}

	var closers []func()
	cleanup := func() {
		log.Info("cleaning up data resources")
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Data, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// Initialize database
	db, err := database.New(&config.Database, log)
	if err != nil {
		return fail(fmt.Errorf("failed to init database: %w", err))
	}
	d.DB = db
	closers = append(closers, func() {
		if err := db.Close(); err != nil {
			log.Warn("close database failed", zap.Error(err))
		}
	})

	// Initialize Redis (only when it backs the record cache)
	if config.Cache.Backend == conf.CacheRedis {
		rdb, err := redis.New(&config.Redis, log)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		d.RedisClient = rdb
		closers = append(closers, func() { _ = rdb.Close() })
	}

	// Initialize object storage
	switch config.Storage.Provider {
	case conf.ProviderS3:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client, err := s3.NewClient(ctx, &config.Storage.S3, log.Logger)
		if err != nil {
			return fail(fmt.Errorf("failed to init s3: %w", err))
		}
		d.S3Client = client
	default:
		client, err := minio.NewClient(&config.Storage.MinIO.Config, log.Logger)
		if err != nil {
			return fail(fmt.Errorf("failed to init minio: %w", err))
		}
		d.MinIOClient = client
		closers = append(closers, func() { _ = client.Close() })
	}

	log.Info("data layer initialized",
		zap.String("database", config.Database.Driver),
		zap.String("storage", config.Storage.Provider),
		zap.String("cache", config.Cache.Backend),
	)
	return d, cleanup, nil
}

// NewObjectStore 按配置选择 MinIO 或 S3
func NewObjectStore(d *Data, config *conf.Config) sharedata.ObjectStore {
	if d.S3Client != nil {
		return sharedata.NewS3Store(d.S3Client)
	}
	return sharedata.NewMinIOStore(d.MinIOClient, config.Storage.MinIO.Bucket)
}

// NewRecordCache 按配置选择记录缓存，backend=none 时返回 nil
func NewRecordCache(d *Data, config *conf.Config) sharedata.RecordCache {
	switch config.Cache.Backend {
	case conf.CacheRedis:
		return sharedata.NewRedisRecordCache(d.RedisClient, config.Cache.TTL, d.Logger.Logger)
	case conf.CacheMemory:
		return sharedata.NewMemoryRecordCache(config.Cache.Size, config.Cache.TTL)
	default:
		return nil
	}
}

// NewRecordRepo 元数据仓库，按配置套一层缓存
func NewRecordRepo(d *Data, cache sharedata.RecordCache) sharedata.RecordRepo {
	return sharedata.NewCachedRecordRepo(sharedata.NewRecordRepo(d.DB), cache)
}
