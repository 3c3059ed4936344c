// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"search-sync-svc/internal/application/search"
	"search-sync-svc/internal/domain/entity"
)

// SearchRequest 检索请求
type SearchRequest struct {
	Query     map[string]any `json:"query" binding:"required"`
	Reference string         `json:"reference,omitempty"`
	QueryType string         `json:"query_type,omitempty"`
}

// RankedArticleResponse 带排名的文章响应
type RankedArticleResponse struct {
	ArticleResponse
	SearchScore float64 `json:"search_score"`
	SearchRank  int     `json:"search_rank"`
}

// SearchResponse 检索响应
type SearchResponse struct {
	QueryID     string                   `json:"query_id"`
	Index       string                   `json:"index"`
	TotalHits   int64                    `json:"total_hits"`
	SearchTerms string                   `json:"search_terms,omitempty"`
	ExecutedAt  string                   `json:"executed_at"`
	Duration    float64                  `json:"duration"`
	PageFrom    int                      `json:"page_from"`
	PageTo      int                      `json:"page_to"`
	PageSize    int                      `json:"page_size"`
	MaxScore    float64                  `json:"max_score"`
	Articles    []*RankedArticleResponse `json:"articles"`
}

// SearchQueryResponse 查询日志响应
type SearchQueryResponse struct {
	ID          string         `json:"id"`
	Index       string         `json:"index"`
	UserID      string         `json:"user_id,omitempty"`
	Query       map[string]any `json:"query"`
	Hits        []entity.Hit   `json:"hits"`
	TotalHits   int64          `json:"total_hits"`
	Reference   string         `json:"reference,omitempty"`
	QueryType   string         `json:"query_type"`
	SearchTerms string         `json:"search_terms,omitempty"`
	ExecutedAt  string         `json:"executed_at"`
	Duration    float64        `json:"duration"`
	PageFrom    int            `json:"page_from"`
	PageTo      int            `json:"page_to"`
	PageSize    int            `json:"page_size"`
	MaxScore    float64        `json:"max_score"`
	MinScore    float64        `json:"min_score"`
}

// ToSearchResponse 转换检索结果
func ToSearchResponse(out *search.ExecuteOutput) *SearchResponse {
	sq := out.Query
	articles := make([]*RankedArticleResponse, 0, len(out.Articles))
	for _, a := range out.Articles {
		articles = append(articles, &RankedArticleResponse{
			ArticleResponse: toArticleResponse(&a.Article),
			SearchScore:     a.SearchScore,
			SearchRank:      a.SearchRank,
		})
	}
	return &SearchResponse{
		QueryID:     sq.ID,
		Index:       sq.Index,
		TotalHits:   sq.TotalHits,
		SearchTerms: sq.SearchTerms,
		ExecutedAt:  sq.ExecutedAt.Format(time.RFC3339),
		Duration:    sq.Duration,
		PageFrom:    sq.PageFrom(),
		PageTo:      sq.PageTo(),
		PageSize:    sq.PageSize(),
		MaxScore:    sq.MaxScore(),
		Articles:    articles,
	}
}

// ToSearchQueryResponse 转换查询日志记录
func ToSearchQueryResponse(sq *entity.SearchQuery) *SearchQueryResponse {
	return &SearchQueryResponse{
		ID:          sq.ID,
		Index:       sq.Index,
		UserID:      sq.UserID,
		Query:       sq.Query,
		Hits:        sq.Hits,
		TotalHits:   sq.TotalHits,
		Reference:   sq.Reference,
		QueryType:   string(sq.QueryType),
		SearchTerms: sq.SearchTerms,
		ExecutedAt:  sq.ExecutedAt.Format(time.RFC3339),
		Duration:    sq.Duration,
		PageFrom:    sq.PageFrom(),
		PageTo:      sq.PageTo(),
		PageSize:    sq.PageSize(),
		MaxScore:    sq.MaxScore(),
		MinScore:    sq.MinScore(),
	}
}

// ToSearchQueryListResponse 转换查询日志列表
func ToSearchQueryListResponse(items []*entity.SearchQuery) []*SearchQueryResponse {
	out := make([]*SearchQueryResponse, 0, len(items))
	for _, sq := range items {
		out = append(out, ToSearchQueryResponse(sq))
	}
	return out
}
