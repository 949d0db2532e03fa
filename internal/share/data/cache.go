package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lk2023060901/tomato-share/internal/pkg/redis"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"go.uber.org/zap"
)

// RecordCache 文件记录读缓存。记录不可变，因此只需写入，不需要失效
type RecordCache interface {
	Get(ctx context.Context, id string) (*biz.FileRecord, bool)
	Set(ctx context.Context, record *biz.FileRecord)
}

// redisRecordCache 基于 Redis 的跨实例缓存
type redisRecordCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisRecordCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) RecordCache {
	return &redisRecordCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisRecordCache) key(id string) string {
	return c.client.Key("file", id)
}

func (c *redisRecordCache) Get(ctx context.Context, id string) (*biz.FileRecord, bool) {
	raw, err := c.client.Get(ctx, c.key(id))
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Warn("record cache read failed", zap.String("id", id), zap.Error(err))
		}
		return nil, false
	}

	var record biz.FileRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		c.logger.Warn("record cache entry corrupted", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &record, true
}

func (c *redisRecordCache) Set(ctx context.Context, record *biz.FileRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(record.ID), raw, c.ttl); err != nil {
		c.logger.Warn("record cache write failed", zap.String("id", record.ID), zap.Error(err))
	}
}

// memoryRecordCache 进程内 LRU 缓存
type memoryRecordCache struct {
	lru *expirable.LRU[string, biz.FileRecord]
}

func NewMemoryRecordCache(size int, ttl time.Duration) RecordCache {
	return &memoryRecordCache{lru: expirable.NewLRU[string, biz.FileRecord](size, nil, ttl)}
}

// Get 返回副本，调用方改写 URL 不影响缓存
func (c *memoryRecordCache) Get(_ context.Context, id string) (*biz.FileRecord, bool) {
	record, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return &record, true
}

func (c *memoryRecordCache) Set(_ context.Context, record *biz.FileRecord) {
	c.lru.Add(record.ID, *record)
}

// cachedRecordRepo 在 RecordRepo 前加一层读缓存
type cachedRecordRepo struct {
	RecordRepo
	cache RecordCache
}

// NewCachedRecordRepo cache 为 nil 时直接返回 repo
func NewCachedRecordRepo(repo RecordRepo, cache RecordCache) RecordRepo {
	if cache == nil {
		return repo
	}
	return &cachedRecordRepo{RecordRepo: repo, cache: cache}
}

func (r *cachedRecordRepo) Create(ctx context.Context, record *biz.FileRecord, acl biz.ACL) error {
	if err := r.RecordRepo.Create(ctx, record, acl); err != nil {
		return err
	}
	r.cache.Set(ctx, record)
	return nil
}

func (r *cachedRecordRepo) GetByID(ctx context.Context, id string) (*biz.FileRecord, error) {
	if record, ok := r.cache.Get(ctx, id); ok {
		return record, nil
	}

	record, err := r.RecordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, record)
	return record, nil
}
