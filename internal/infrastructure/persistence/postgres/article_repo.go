// Package postgres 提供 PostgreSQL 数据访问层实现
package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"search-sync-svc/internal/domain/entity"
)

// ArticleRepository 文章仓储实现
type ArticleRepository struct {
	client *Client
}

// NewArticleRepository 创建文章仓储
func NewArticleRepository(client *Client) *ArticleRepository {
	return &ArticleRepository{client: client}
}

// Create 创建文章
func (r *ArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(article).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取文章
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var article entity.Article
	if err := db.First(&article, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// Update 更新文章
func (r *ArticleRepository) Update(ctx context.Context, article *entity.Article) error {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(article).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

// Delete 删除文章
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Article{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

// searchQueryset 应进入搜索索引的文章集合
// 目前各索引共用同一规则：只索引已发布的文章
func (r *ArticleRepository) searchQueryset(db *gorm.DB, index string) *gorm.DB {
	return db.Model(&entity.Article{}).Where("published = ?", true)
}

// ListSearchQueryset 按批次返回搜索数据集，供全量重建索引使用
func (r *ArticleRepository) ListSearchQueryset(ctx context.Context, index string, offset, limit int) ([]*entity.Article, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.ListSearchQueryset")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var articles []*entity.Article
	if err := r.searchQueryset(db, index).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&articles).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list search queryset: %w", err)
	}
	return articles, nil
}

// InSearchIndex 检查文章是否属于索引的搜索数据集
func (r *ArticleRepository) InSearchIndex(ctx context.Context, index string, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.InSearchIndex")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := r.searchQueryset(db, index).Where("id = ?", id).Count(&count).Error; err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check search queryset: %w", err)
	}
	return count > 0, nil
}

// FromSearchQuery 把查询记录的命中还原为有序文章集合
// 单次往返：IN 过滤 + 两个 CASE WHEN 投影列，按 search_rank 升序排序，
// 排序以命中位置为准而非评分，评分并列或缺失时结果顺序依然与引擎一致
// 数据库中已不存在的命中被静默跳过
func (r *ArticleRepository) FromSearchQuery(ctx context.Context, sq *entity.SearchQuery) ([]*entity.RankedArticle, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.FromSearchQuery")
	defer span.End()

	if len(sq.Hits) == 0 {
		return []*entity.RankedArticle{}, nil
	}

	ids := sq.ObjectIDs()
	scoreCase, scoreArgs := rankingCase("articles.id", sq.Hits, func(i int, h entity.Hit) any {
		return h.ScoreValue()
	})
	rankCase, rankArgs := rankingCase("articles.id", sq.Hits, func(i int, h entity.Hit) any {
		return i
	})

	selectSQL := fmt.Sprintf("articles.*, (%s) AS search_score, (%s) AS search_rank", scoreCase, rankCase)
	args := append(scoreArgs, rankArgs...)

	db := getDB(ctx, r.client.db)
	var ranked []*entity.RankedArticle
	if err := db.Model(&entity.Article{}).
		Select(selectSQL, args...).
		Where("articles.id IN ?", ids).
		Order("search_rank ASC").
		Find(&ranked).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to rank articles: %w", err)
	}
	return ranked, nil
}

// rankingCase 构造 CASE <column> WHEN <id> THEN <value> ... ELSE 0 END 表达式
// 值通过占位符传递，返回表达式与对应参数
func rankingCase(column string, hits []entity.Hit, value func(i int, h entity.Hit) any) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(hits)*2)

	sb.WriteString("CASE ")
	sb.WriteString(column)
	for i, h := range hits {
		sb.WriteString(" WHEN ? THEN ?")
		args = append(args, h.ID, value(i, h))
	}
	sb.WriteString(" ELSE 0 END")
	return sb.String(), args
}
