// Package postgres 提供 PostgreSQL 数据访问层实现
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
)

// searchQueryRow 查询日志的存储行
// query 与 hits 以 JSONB 存储，写入前必须经过 JSON 安全转换
type searchQueryRow struct {
	ID          string  `gorm:"primaryKey"`
	IndexName   string  `gorm:"column:index_name;index"`
	UserID      *string `gorm:"column:user_id"`
	Query       []byte  `gorm:"type:jsonb"`
	Hits        []byte  `gorm:"type:jsonb"`
	TotalHits   int64
	Reference   string
	QueryType   string
	SearchTerms string
	ExecutedAt  time.Time `gorm:"index"`
	Duration    float64
	CreatedAt   time.Time
}

// TableName 指定表名
func (searchQueryRow) TableName() string {
	return "search_queries"
}

// SearchQueryRepository 查询日志仓储实现
// 记录只追加，不提供更新和删除
type SearchQueryRepository struct {
	client *Client
}

// NewSearchQueryRepository 创建查询日志仓储
func NewSearchQueryRepository(client *Client) *SearchQueryRepository {
	return &SearchQueryRepository{client: client}
}

// Save 持久化查询记录
// 写入前对查询体和命中做 JSON 安全转换，不可序列化的值降级为
// 字符串表示而不是让写入失败
func (r *SearchQueryRepository) Save(ctx context.Context, sq *entity.SearchQuery) error {
	ctx, span := tracer.Start(ctx, "postgres.SearchQueryRepository.Save")
	defer span.End()

	row, err := toSearchQueryRow(sq)
	if err != nil {
		span.RecordError(err)
		return err
	}

	db := getDB(ctx, r.client.db)
	if err := db.Create(row).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save search query: %w", err)
	}
	return nil
}

// GetByID 按 ID 读取查询记录
func (r *SearchQueryRepository) GetByID(ctx context.Context, id string) (*entity.SearchQuery, error) {
	ctx, span := tracer.Start(ctx, "postgres.SearchQueryRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var row searchQueryRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get search query: %w", err)
	}
	return fromSearchQueryRow(&row)
}

// ListByIndex 按索引分页列出查询记录，新记录在前
func (r *SearchQueryRepository) ListByIndex(ctx context.Context, index string, pagination repository.Pagination) (*repository.PagedResult[*entity.SearchQuery], error) {
	ctx, span := tracer.Start(ctx, "postgres.SearchQueryRepository.ListByIndex")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&searchQueryRow{}).Where("index_name = ?", index)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count search queries: %w", err)
	}

	var rows []searchQueryRow
	if err := query.Order("executed_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list search queries: %w", err)
	}

	items := make([]*entity.SearchQuery, 0, len(rows))
	for i := range rows {
		sq, err := fromSearchQueryRow(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, sq)
	}
	return repository.NewPagedResult(items, total, pagination), nil
}

// toSearchQueryRow 实体转存储行，执行 JSON 安全转换
func toSearchQueryRow(sq *entity.SearchQuery) (*searchQueryRow, error) {
	queryBytes, err := json.Marshal(entity.SafeQuery(sq.Query))
	if err != nil {
		return nil, fmt.Errorf("failed to encode query body: %w", err)
	}
	hitsBytes, err := json.Marshal(entity.SafeHits(sq.Hits))
	if err != nil {
		return nil, fmt.Errorf("failed to encode hits: %w", err)
	}

	row := &searchQueryRow{
		ID:          sq.ID,
		IndexName:   sq.Index,
		Query:       queryBytes,
		Hits:        hitsBytes,
		TotalHits:   sq.TotalHits,
		Reference:   sq.Reference,
		QueryType:   string(sq.QueryType),
		SearchTerms: sq.SearchTerms,
		ExecutedAt:  sq.ExecutedAt,
		Duration:    sq.Duration,
	}
	if sq.UserID != "" {
		row.UserID = &sq.UserID
	}
	return row, nil
}

// fromSearchQueryRow 存储行转实体
func fromSearchQueryRow(row *searchQueryRow) (*entity.SearchQuery, error) {
	sq := &entity.SearchQuery{
		ID:          row.ID,
		Index:       row.IndexName,
		TotalHits:   row.TotalHits,
		Reference:   row.Reference,
		QueryType:   entity.QueryType(row.QueryType),
		SearchTerms: row.SearchTerms,
		ExecutedAt:  row.ExecutedAt,
		Duration:    row.Duration,
	}
	if row.UserID != nil {
		sq.UserID = *row.UserID
	}
	if len(row.Query) > 0 {
		if err := json.Unmarshal(row.Query, &sq.Query); err != nil {
			return nil, fmt.Errorf("failed to decode query body: %w", err)
		}
	}
	if len(row.Hits) > 0 {
		if err := json.Unmarshal(row.Hits, &sq.Hits); err != nil {
			return nil, fmt.Errorf("failed to decode hits: %w", err)
		}
	}
	return sq, nil
}
