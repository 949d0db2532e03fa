package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lk2023060901/tomato-share/internal/pkg/database"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"gorm.io/gorm"
)

// pgInsufficientPrivilege PostgreSQL 42501
const pgInsufficientPrivilege = "42501"

// SharedFilePO 分享文件记录表
type SharedFilePO struct {
	ID          string    `gorm:"type:varchar(36);primarykey"`
	Name        string    `gorm:"size:255;not null"`
	URL         string    `gorm:"size:2048;not null"`
	Size        int64     `gorm:"not null"`
	ObjectKey   string    `gorm:"size:1024;not null;uniqueIndex:idx_shared_files_object_key"`
	MimeType    string    `gorm:"size:255"`
	PublicRead  bool      `gorm:"not null;default:true"`
	PublicWrite bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (SharedFilePO) TableName() string {
	return "shared_files"
}

// BeforeCreate 由存储侧分配 ID
func (po *SharedFilePO) BeforeCreate(tx *gorm.DB) error {
	if po.ID == "" {
		po.ID = uuid.NewString()
	}
	return nil
}

// RecordRepo 文件记录仓储，记录只写一次，不提供更新与删除
type RecordRepo interface {
	Create(ctx context.Context, record *biz.FileRecord, acl biz.ACL) error
	GetByID(ctx context.Context, id string) (*biz.FileRecord, error)
	Migrate(ctx context.Context) error
}

type recordRepo struct {
	db *database.DB
}

func NewRecordRepo(db *database.DB) RecordRepo {
	return &recordRepo{db: db}
}

func (r *recordRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&SharedFilePO{})
}

// Create 写入记录，回填 ID 与 CreatedAt
func (r *recordRepo) Create(ctx context.Context, record *biz.FileRecord, acl biz.ACL) error {
	po := &SharedFilePO{
		Name:        record.Name,
		URL:         record.URL,
		Size:        record.Size,
		ObjectKey:   record.ObjectKey,
		MimeType:    record.MimeType,
		PublicRead:  acl.PublicRead,
		PublicWrite: acl.PublicWrite,
	}

	if err := r.db.WithContext(ctx).GetDB().Create(po).Error; err != nil {
		return fmt.Errorf("create shared file: %w", translate(err))
	}

	record.ID = po.ID
	record.CreatedAt = po.CreatedAt
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (*biz.FileRecord, error) {
	var po SharedFilePO
	if err := r.db.WithContext(ctx).GetDB().Where("id = ?", id).First(&po).Error; err != nil {
		return nil, translate(err)
	}
	return toRecord(&po), nil
}

func toRecord(po *SharedFilePO) *biz.FileRecord {
	return &biz.FileRecord{
		ID:        po.ID,
		Name:      po.Name,
		URL:       po.URL,
		Size:      po.Size,
		MimeType:  po.MimeType,
		CreatedAt: po.CreatedAt,
		ObjectKey: po.ObjectKey,
	}
}

// translate 将数据库错误映射为业务哨兵错误
func translate(err error) error {
	if database.IsRecordNotFoundError(err) {
		return biz.ErrFileNotFound
	}
	if database.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", biz.ErrDuplicateObject, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		return fmt.Errorf("%w: %s", biz.ErrPermissionDenied, pgErr.Message)
	}
	return err
}
