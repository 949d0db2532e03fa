package data

import (
	"testing"
	"time"

	"github.com/lk2023060901/tomato-share/internal/conf"
	"github.com/lk2023060901/tomato-share/internal/pkg/database"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/pkg/minio"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *conf.Config {
	db := database.DefaultConfig()
	db.Driver = database.DriverSQLite
	db.Path = ":memory:"
	db.LogLevel = "silent"
	db.PrepareStmt = false

	return &conf.Config{
		Database: *db,
		Storage: conf.StorageConfig{
			Provider:  conf.ProviderMinIO,
			KeyPrefix: "shared",
			MinIO: conf.MinIOStorageConfig{
				Config: minio.Config{
					Endpoint:        "localhost:9000",
					AccessKeyID:     "minioadmin",
					SecretAccessKey: "minioadmin",
				},
				Bucket: "tomato-share",
			},
		},
		Cache: conf.CacheConfig{Backend: conf.CacheMemory, TTL: time.Minute, Size: 16},
	}
}

func TestNewDataMinIOAndMemoryCache(t *testing.T) {
	cfg := testConfig()

	d, cleanup, err := NewData(cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, d.DB)
	assert.NotNil(t, d.MinIOClient)
	assert.Nil(t, d.S3Client)
	assert.Nil(t, d.RedisClient, "redis is only dialed for the redis cache backend")

	store := NewObjectStore(d, cfg)
	assert.Equal(t, "minio", store.Name())

	cache := NewRecordCache(d, cfg)
	require.NotNil(t, cache)

	repo := NewRecordRepo(d, cache)
	require.NoError(t, repo.Migrate(t.Context()))

	record := &biz.FileRecord{Name: "a.pdf", URL: "https://f/a.pdf", Size: 1, MimeType: "application/pdf", ObjectKey: "shared/a.pdf"}
	require.NoError(t, repo.Create(t.Context(), record, biz.PublicReadACL))

	got, err := repo.GetByID(t.Context(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", got.Name)
}

func TestNewRecordCacheNone(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = conf.CacheNone
	assert.Nil(t, NewRecordCache(&Data{Logger: logger.Nop()}, cfg))
}

func TestNewDataInvalidDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "oracle"

	_, _, err := NewData(cfg, logger.Nop())
	assert.Error(t, err)
}
