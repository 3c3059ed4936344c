// Package redis 提供 Redis 缓存和消息流实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"search-sync-svc/internal/domain/entity"
)

// checkAndSetScript 单次往返完成比较并存储
// 已存值与新值相同时返回 1 且不改状态，否则写入并返回 0
// 脚本在 Redis 内原子执行，并发写入同一 key 不会同时得到重复判定
var checkAndSetScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == ARGV[1] then
  return 1
end
if tonumber(ARGV[2]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 0
`)

// SyncCache 基于 Redis 的同步缓存
// 存储每个 (实体类型, ID, 索引) 最近一次成功写入的文档编码，
// 用于在文档内容未变化时短路对搜索引擎的写入
type SyncCache struct {
	client *Client
	ttl    time.Duration
}

// NewSyncCache 创建同步缓存，ttl 为 0 表示条目不过期
func NewSyncCache(client *Client, ttl time.Duration) *SyncCache {
	return &SyncCache{
		client: client,
		ttl:    ttl,
	}
}

// CheckAndSet 原子地比较并存储文档
// map 的 JSON 编码按键名排序，同一文档的编码结果确定，可直接比较
func (c *SyncCache) CheckAndSet(ctx context.Context, key string, doc entity.SearchDocument) (bool, error) {
	ctx, span := tracer.Start(ctx, "syncCache.CheckAndSet")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	payload, err := json.Marshal(doc)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to encode document: %w", err)
	}

	res, err := checkAndSetScript.Run(ctx, c.client.rdb,
		[]string{key}, string(payload), c.ttl.Milliseconds()).Int()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to run check-and-set: %w", err)
	}

	duplicate := res == 1
	span.SetAttributes(attribute.Bool("cache.duplicate", duplicate))
	return duplicate, nil
}

// Invalidate 移除缓存条目
func (c *SyncCache) Invalidate(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "syncCache.Invalidate")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	return c.client.rdb.Del(ctx, key).Err()
}
