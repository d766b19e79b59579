package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrProfileStoreUnavailable Redis 未启用
var ErrProfileStoreUnavailable = errors.New("redis profile store unavailable")

// RedisProfileStore 基于 Redis Hash 的客户资料存储
// 键为 <prefix>:profile:<subject>，计数保存在 membership_discounts 字段
type RedisProfileStore struct {
	client *redis.Client
	prefix string
}

// NewRedisProfileStore 创建 Redis 客户资料存储
func NewRedisProfileStore(client *redis.Client, prefix string) *RedisProfileStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = constants.RedisPrefixDefault
	}
	return &RedisProfileStore{client: client, prefix: prefix}
}

func (s *RedisProfileStore) key(subjectID string) string {
	return buildKeyWithPrefix(s.prefix, fmt.Sprintf(constants.ProfileCacheKey, strings.TrimSpace(subjectID)))
}

// GetProfileCounters 读取客户的规则用量快照，不存在时返回空快照
func (s *RedisProfileStore) GetProfileCounters(ctx context.Context, subjectID string) (models.QuotaCounterSnapshot, error) {
	if s == nil || s.client == nil {
		return nil, ErrProfileStoreUnavailable
	}
	raw, err := s.client.HGet(ctx, s.key(subjectID), constants.ProfileMetadataDiscountCounters).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.QuotaCounterSnapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	snapshot := models.QuotaCounterSnapshot{}
	if len(raw) == 0 {
		return snapshot, nil
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode profile counters: %w", err)
	}
	return snapshot, nil
}

// SetProfileCounters 覆盖写入客户的规则用量快照
func (s *RedisProfileStore) SetProfileCounters(ctx context.Context, subjectID string, snapshot models.QuotaCounterSnapshot) error {
	if s == nil || s.client == nil {
		return ErrProfileStoreUnavailable
	}
	if snapshot == nil {
		snapshot = models.QuotaCounterSnapshot{}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key(subjectID), constants.ProfileMetadataDiscountCounters, payload).Err()
}
