// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// QueryType 查询类型
type QueryType string

const (
	QueryTypeSearch  QueryType = "SEARCH"
	QueryTypeSuggest QueryType = "SUGGEST"
	QueryTypeAdmin   QueryType = "ADMIN"
	QueryTypeError   QueryType = "ERROR"
)

// Hit 单条命中记录
// Score 为空指针表示引擎未返回评分，计算时一律按 0 处理
type Hit struct {
	ID      string         `json:"id"`
	Score   *float64       `json:"score"`
	DocType string         `json:"doc_type,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ScoreValue 返回评分，空评分返回 0
func (h Hit) ScoreValue() float64 {
	if h.Score == nil {
		return 0
	}
	return *h.Score
}

// SearchQuery 一次已执行查询的不可变记录
// Hits 的顺序是权威的相关性顺序，除显式要求外不得重排
type SearchQuery struct {
	ID          string         `json:"id"`
	Index       string         `json:"index"`
	UserID      string         `json:"user_id,omitempty"`
	Query       map[string]any `json:"query"`
	Hits        []Hit          `json:"hits"`
	TotalHits   int64          `json:"total_hits"`
	Reference   string         `json:"reference"`
	QueryType   QueryType      `json:"query_type"`
	SearchTerms string         `json:"search_terms"`
	ExecutedAt  time.Time      `json:"executed_at"`
	Duration    float64        `json:"duration"`
}

// NewSearchQuery 创建查询记录
// query_type 为空时默认为 SEARCH，search_terms 无法从查询体解析时为空串
func NewSearchQuery(index string, query map[string]any, hits []Hit, totalHits int64, executedAt time.Time, duration float64) *SearchQuery {
	return &SearchQuery{
		ID:          uuid.NewString(),
		Index:       index,
		Query:       query,
		Hits:        hits,
		TotalHits:   totalHits,
		QueryType:   QueryTypeSearch,
		SearchTerms: ExtractSearchTerms(query),
		ExecutedAt:  executedAt,
		Duration:    duration,
	}
}

// ObjectIDs 返回命中的全部对象 ID，顺序无意义
func (sq *SearchQuery) ObjectIDs() []string {
	ids := make([]string, 0, len(sq.Hits))
	for _, h := range sq.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}

// PageSlice 返回查询体请求的 (from, size) 分页参数
// 查询体缺失分页参数时 ok 为 false
func (sq *SearchQuery) PageSlice() (from, size int, ok bool) {
	if sq.Query == nil {
		return 0, 0, false
	}
	from = intFromQuery(sq.Query, "from")
	size = intFromQuery(sq.Query, "size")
	_, hasFrom := sq.Query["from"]
	_, hasSize := sq.Query["size"]
	return from, size, hasFrom || hasSize
}

// PageFrom 当前页第一条命中的序号（1 起始），无命中时为 0
func (sq *SearchQuery) PageFrom() int {
	if len(sq.Hits) == 0 {
		return 0
	}
	from, _, _ := sq.PageSlice()
	return from + 1
}

// PageTo 当前页最后一条命中的序号，无命中时为 0
func (sq *SearchQuery) PageTo() int {
	if len(sq.Hits) == 0 {
		return 0
	}
	from, _, _ := sq.PageSlice()
	return from + len(sq.Hits)
}

// PageSize 当前页实际命中数，无命中时为 0
func (sq *SearchQuery) PageSize() int {
	return len(sq.Hits)
}

// MaxScore 命中最高评分，无命中时为 0
func (sq *SearchQuery) MaxScore() float64 {
	var max float64
	for _, h := range sq.Hits {
		if s := h.ScoreValue(); s > max {
			max = s
		}
	}
	return max
}

// MinScore 命中最低评分，无命中时为 0
func (sq *SearchQuery) MinScore() float64 {
	if len(sq.Hits) == 0 {
		return 0
	}
	min := sq.Hits[0].ScoreValue()
	for _, h := range sq.Hits[1:] {
		if s := h.ScoreValue(); s < min {
			min = s
		}
	}
	return min
}

// ExtractSearchTerms 从查询体中提取搜索词
// 兼容 query_string / match / multi_match 三种常见形态，解析失败时返回空串
func ExtractSearchTerms(query map[string]any) string {
	q, ok := query["query"].(map[string]any)
	if !ok {
		return ""
	}

	if qs, ok := q["query_string"].(map[string]any); ok {
		if terms, ok := qs["query"].(string); ok {
			return terms
		}
	}
	if mm, ok := q["multi_match"].(map[string]any); ok {
		if terms, ok := mm["query"].(string); ok {
			return terms
		}
	}
	if m, ok := q["match"].(map[string]any); ok {
		for _, v := range m {
			switch t := v.(type) {
			case string:
				return t
			case map[string]any:
				if terms, ok := t["query"].(string); ok {
					return terms
				}
			}
		}
	}
	return ""
}

// intFromQuery 从查询体读取整型参数，JSON 反序列化后的数值类型可能不同
func intFromQuery(query map[string]any, key string) int {
	switch v := query[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
