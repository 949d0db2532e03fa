package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/tomato-share/internal/pkg/database"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/minio"
	"github.com/lk2023060901/tomato-share/internal/pkg/redis"
	"github.com/lk2023060901/tomato-share/internal/pkg/s3"
	"github.com/lk2023060901/tomato-share/internal/pkg/validator"
	"github.com/lk2023060901/tomato-share/internal/pkg/workerpool"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 TOMATO_SERVER_PORT
const EnvPrefix = "TOMATO"

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Redis    redis.Config    `mapstructure:"redis"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Share    ShareConfig     `mapstructure:"share"`
	I18n     I18nConfig      `mapstructure:"i18n"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Log      logger.Config   `mapstructure:"log"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	GRPCPort int    `mapstructure:"grpc_port" validate:"min=0,max=65535"` // 0 表示不启动 gRPC
	// Mode gin 运行模式: debug, release, test
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// PublicBaseURL 生成分享链接、二维码使用的站点地址
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

// Addr HTTP 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr gRPC 监听地址
func (c *ServerConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// 存储提供方
const (
	ProviderMinIO = "minio"
	ProviderS3    = "s3"
)

type StorageConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=minio s3"`
	// KeyPrefix 对象键前缀
	KeyPrefix string             `mapstructure:"key_prefix"`
	MinIO     MinIOStorageConfig `mapstructure:"minio"`
	S3        s3.Config          `mapstructure:"s3"`
}

type MinIOStorageConfig struct {
	minio.Config `mapstructure:",squash"`
	Bucket       string `mapstructure:"bucket"`
}

// 记录缓存后端
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

type CacheConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=redis memory none"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
	// Size 内存缓存的最大条目数
	Size int `mapstructure:"size" validate:"gte=0"`
}

type ShareConfig struct {
	// PublicDomain 文件地址统一改写到的公网域名
	PublicDomain    string            `mapstructure:"public_domain" validate:"required,hostname|hostname_port"`
	UploadTimeout   time.Duration     `mapstructure:"upload_timeout" validate:"gt=0"`
	TransferWorkers workerpool.Config `mapstructure:"transfer_workers"`
}

type I18nConfig struct {
	DefaultLang string `mapstructure:"default_lang" validate:"oneof=zh en"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"startswith=/"`
}

// LoadConfig 读取配置文件，环境变量 TOMATO_* 覆盖同名配置项
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate 结构体标签校验 + 各组件自身的校验
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	switch c.Storage.Provider {
	case ProviderMinIO:
		if err := c.Storage.MinIO.Validate(); err != nil {
			return fmt.Errorf("storage.minio: %w", err)
		}
		if err := minio.ValidateBucketName(c.Storage.MinIO.Bucket); err != nil {
			return fmt.Errorf("storage.minio.bucket: %w", err)
		}
	case ProviderS3:
		if err := c.Storage.S3.Validate(); err != nil {
			return fmt.Errorf("storage.s3: %w", err)
		}
	}

	if c.Cache.Backend == CacheRedis {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if c.Share.TransferWorkers.Workers <= 0 {
		return fmt.Errorf("share.transfer_workers.workers must be > 0")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.public_base_url", "")

	db := database.DefaultConfig()
	v.SetDefault("database.driver", db.Driver)
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", db.DBName)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.path", "data/tomato-share.db")
	v.SetDefault("database.maxidleconns", db.MaxIdleConns)
	v.SetDefault("database.maxopenconns", db.MaxOpenConns)
	v.SetDefault("database.connmaxlifetime", db.ConnMaxLifetime)
	v.SetDefault("database.connmaxidletime", db.ConnMaxIdleTime)
	v.SetDefault("database.loglevel", db.LogLevel)
	v.SetDefault("database.slowthreshold", db.SlowThreshold)
	v.SetDefault("database.preparestmt", db.PrepareStmt)
	v.SetDefault("database.timezone", db.Timezone)
	v.SetDefault("database.automigrate", db.AutoMigrate)

	rd := redis.DefaultConfig()
	v.SetDefault("redis.mode", string(rd.Mode))
	v.SetDefault("redis.addr", rd.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", rd.DB)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.min_idle_conns", rd.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rd.DialTimeout)
	v.SetDefault("redis.read_timeout", rd.ReadTimeout)
	v.SetDefault("redis.write_timeout", rd.WriteTimeout)
	v.SetDefault("redis.pool_timeout", rd.PoolTimeout)
	v.SetDefault("redis.max_retries", rd.MaxRetries)
	v.SetDefault("redis.key_prefix", rd.KeyPrefix)

	v.SetDefault("storage.provider", ProviderMinIO)
	v.SetDefault("storage.key_prefix", "shared")
	v.SetDefault("storage.minio.endpoint", "localhost:9000")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.bucket", "tomato-share")
	v.SetDefault("storage.minio.request_timeout", 30*time.Second)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.public_acl", true)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.size", 1024)

	wp := workerpool.DefaultConfig()
	v.SetDefault("share.public_domain", "")
	v.SetDefault("share.upload_timeout", 5*time.Minute)
	v.SetDefault("share.transfer_workers.workers", wp.Workers)
	v.SetDefault("share.transfer_workers.max_blocking_tasks", wp.MaxBlockingTasks)
	v.SetDefault("share.transfer_workers.nonblocking", wp.Nonblocking)
	v.SetDefault("share.transfer_workers.expiry_duration", wp.ExpiryDuration)

	v.SetDefault("i18n.default_lang", "zh")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.enablecaller", lg.EnableCaller)
	v.SetDefault("log.enablestacktrace", lg.EnableStacktrace)
	v.SetDefault("log.file.filename", lg.File.Filename)
	v.SetDefault("log.file.maxsize", lg.File.MaxSize)
	v.SetDefault("log.file.maxage", lg.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)
}
