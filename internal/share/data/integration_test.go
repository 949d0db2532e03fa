//go:build integration

package data

import (
	"strconv"
	"testing"
	"time"

	"github.com/lk2023060901/tomato-share/internal/pkg/database"
	"github.com/lk2023060901/tomato-share/internal/pkg/logger"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// 运行方式: go test -tags integration ./internal/share/data/...
func setupPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := t.Context()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("tomato_share_test"),
		postgres.WithUsername("tomato"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.DefaultConfig()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port.Port())
	cfg.User = "tomato"
	cfg.Password = "test-password"
	cfg.DBName = "tomato_share_test"
	cfg.LogLevel = "silent"

	db, err := database.New(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresRecordRepo(t *testing.T) {
	db := setupPostgres(t)
	repo := NewRecordRepo(db)
	ctx := t.Context()
	require.NoError(t, repo.Migrate(ctx))

	record := &biz.FileRecord{
		Name:      "invoice.pdf",
		URL:       "https://files.example.com/shared/a.pdf",
		Size:      2048,
		MimeType:  "application/pdf",
		ObjectKey: "shared/2026/01/02/a.pdf",
	}
	require.NoError(t, repo.Create(ctx, record, biz.PublicReadACL))

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Name, got.Name)
	assert.WithinDuration(t, record.CreatedAt, got.CreatedAt, time.Second)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, biz.ErrFileNotFound)

	// object_key 唯一
	dup := *record
	dup.ID = ""
	assert.True(t, database.IsDuplicateKeyError(repo.Create(ctx, &dup, biz.PublicReadACL)))
}

func TestPostgresPermissionDenied(t *testing.T) {
	db := setupPostgres(t)
	repo := NewRecordRepo(db)
	ctx := t.Context()
	require.NoError(t, repo.Migrate(ctx))

	sql := db.GetDB()
	require.NoError(t, sql.Exec("CREATE ROLE share_reader NOLOGIN").Error)
	require.NoError(t, sql.Exec("REVOKE ALL ON shared_files FROM PUBLIC").Error)

	err := sql.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL ROLE share_reader").Error; err != nil {
			return err
		}
		scoped := NewRecordRepo(&database.DB{DB: tx})
		_, err := scoped.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		return err
	})
	assert.ErrorIs(t, err, biz.ErrPermissionDenied)
}
