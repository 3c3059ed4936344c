// Package memory 提供进程内缓存实现
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"search-sync-svc/internal/domain/entity"
)

// SyncCache 进程内同步缓存
// 单进程部署与测试使用，多副本部署应换用 Redis 实现
type SyncCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	payload   string
	expiresAt time.Time
}

// NewSyncCache 创建进程内同步缓存，ttl 为 0 表示条目不过期
func NewSyncCache(ttl time.Duration) *SyncCache {
	return &SyncCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// CheckAndSet 原子地比较并存储文档
// map 的 JSON 编码按键名排序，同一文档的编码结果确定
func (c *SyncCache) CheckAndSet(ctx context.Context, key string, doc entity.SearchDocument) (bool, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode document: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		expired := !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
		if !expired && e.payload == string(payload) {
			return true, nil
		}
	}

	e := cacheEntry{payload: string(payload)}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[key] = e
	return false, nil
}

// Invalidate 移除缓存条目
func (c *SyncCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
