// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"search-sync-svc/internal/domain/entity"
)

// SearchQueryRepository 查询日志仓储接口
// 记录只追加，核心不提供更新和删除路径，保留策略由外部负责
type SearchQueryRepository interface {
	// Save 持久化查询记录，写入前对查询体和命中做 JSON 安全转换
	Save(ctx context.Context, sq *entity.SearchQuery) error
	GetByID(ctx context.Context, id string) (*entity.SearchQuery, error)
	ListByIndex(ctx context.Context, index string, pagination Pagination) (*PagedResult[*entity.SearchQuery], error)
}
