// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"search-sync-svc/internal/domain/entity"
)

// ArticleRepository 文章仓储接口
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	GetByID(ctx context.Context, id string) (*entity.Article, error)
	Update(ctx context.Context, article *entity.Article) error
	Delete(ctx context.Context, id string) error

	// ListSearchQueryset 按批次返回应进入搜索索引的文章，供全量重建索引使用
	ListSearchQueryset(ctx context.Context, index string, offset, limit int) ([]*entity.Article, error)

	// InSearchIndex 检查文章是否属于索引的搜索数据集
	InSearchIndex(ctx context.Context, index string, id string) (bool, error)

	// FromSearchQuery 把查询记录的命中列表还原为有序文章集合
	// 单次数据库往返，结果顺序与命中顺序严格一致，缺失的记录被静默跳过
	FromSearchQuery(ctx context.Context, sq *entity.SearchQuery) ([]*entity.RankedArticle, error)
}
