// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"search-sync-svc/internal/domain/entity"
)

// SearchResult 引擎返回的原始检索结果
type SearchResult struct {
	Hits      []entity.Hit
	TotalHits int64
	MaxScore  float64
	Took      int64
}

// SearchIndexClient 搜索引擎传输能力
// 实现方只负责网络调用，不做重试，错误原样传播给调用方
type SearchIndexClient interface {
	Index(ctx context.Context, index, id string, doc entity.SearchDocument) error
	// Update 以 {"doc": ...} 包装局部文档提交给引擎
	Update(ctx context.Context, index, id string, doc entity.SearchDocument) error
	Delete(ctx context.Context, index, id string) error
	Get(ctx context.Context, index, id string) (entity.SearchDocument, error)
	Bulk(ctx context.Context, actions []entity.SearchAction) error
	Search(ctx context.Context, index string, query map[string]any) (*SearchResult, error)
}

// SyncCache 同步缓存，防止对引擎的重复写入
// CheckAndSet 对同一 key 必须原子，并发写入者不能同时得到重复判定
type SyncCache interface {
	// CheckAndSet 若 key 下已存储相同文档则返回 true 且不改状态，
	// 否则存储文档并返回 false
	CheckAndSet(ctx context.Context, key string, doc entity.SearchDocument) (duplicate bool, err error)
	// Invalidate 移除缓存条目，删除文档时调用
	Invalidate(ctx context.Context, key string) error
}
