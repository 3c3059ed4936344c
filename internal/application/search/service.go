// Package search 提供检索服务
// 执行引擎查询、持久化查询日志，并把命中列表还原为有序实体集合
package search

import (
	"context"
	"time"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	"search-sync-svc/pkg/logger"
	"search-sync-svc/pkg/metrics"
	"search-sync-svc/pkg/tracer"
)

// Service 检索服务
type Service struct {
	engine   repository.SearchIndexClient
	queries  repository.SearchQueryRepository
	articles repository.ArticleRepository
}

// NewService 创建检索服务
func NewService(engine repository.SearchIndexClient, queries repository.SearchQueryRepository, articles repository.ArticleRepository) *Service {
	return &Service{
		engine:   engine,
		queries:  queries,
		articles: articles,
	}
}

// ExecuteInput 一次查询的输入
// Query 是已构造好的引擎查询体，查询 DSL 的拼装不在本服务职责内
type ExecuteInput struct {
	Index     string
	Query     map[string]any
	UserID    string
	Reference string
	QueryType entity.QueryType
}

// ExecuteOutput 查询执行结果
type ExecuteOutput struct {
	Query    *entity.SearchQuery
	Articles []*entity.RankedArticle
}

// Execute 执行查询并记录日志
// 每次执行产生一条不可变的 SearchQuery 记录；传输层错误会以 ERROR
// 类型尽力记录后原样传播，重试由外层编排决定
func (s *Service) Execute(ctx context.Context, in ExecuteInput) (*ExecuteOutput, error) {
	ctx, span := tracer.Start(ctx, "search.Execute")
	defer span.End()

	started := time.Now()
	res, err := s.engine.Search(ctx, in.Index, in.Query)
	duration := time.Since(started).Seconds()

	if err != nil {
		sq := entity.NewSearchQuery(in.Index, in.Query, nil, 0, started, duration)
		sq.UserID = in.UserID
		sq.Reference = in.Reference
		sq.QueryType = entity.QueryTypeError
		if saveErr := s.queries.Save(ctx, sq); saveErr != nil {
			logger.Error(ctx, "failed to record failed query", saveErr, "search_index", in.Index)
		}
		return nil, err
	}

	sq := entity.NewSearchQuery(in.Index, in.Query, res.Hits, res.TotalHits, started, duration)
	sq.UserID = in.UserID
	sq.Reference = in.Reference
	if in.QueryType != "" {
		sq.QueryType = in.QueryType
	}

	if err := s.queries.Save(ctx, sq); err != nil {
		return nil, err
	}

	metrics.SearchQueriesTotal.WithLabelValues(in.Index, string(sq.QueryType)).Inc()
	metrics.SearchQueryDuration.WithLabelValues(in.Index).Observe(duration)

	articles, err := s.articles.FromSearchQuery(ctx, sq)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "search executed",
		"search_index", in.Index,
		"total_hits", sq.TotalHits,
		"returned", len(articles),
		"duration_s", duration)

	return &ExecuteOutput{Query: sq, Articles: articles}, nil
}

// FromSearchQuery 把既有查询记录还原为有序文章集合
func (s *Service) FromSearchQuery(ctx context.Context, sq *entity.SearchQuery) ([]*entity.RankedArticle, error) {
	ctx, span := tracer.Start(ctx, "search.FromSearchQuery")
	defer span.End()

	return s.articles.FromSearchQuery(ctx, sq)
}

// GetQuery 按 ID 读取查询记录
func (s *Service) GetQuery(ctx context.Context, id string) (*entity.SearchQuery, error) {
	return s.queries.GetByID(ctx, id)
}

// ListQueries 按索引分页列出查询记录
func (s *Service) ListQueries(ctx context.Context, index string, p repository.Pagination) (*repository.PagedResult[*entity.SearchQuery], error) {
	return s.queries.ListByIndex(ctx, index, p)
}

// InSearchIndex 检查文章是否属于索引的搜索数据集
func (s *Service) InSearchIndex(ctx context.Context, index, id string) (bool, error) {
	return s.articles.InSearchIndex(ctx, index, id)
}
