// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Article 文章实体，本服务同步到搜索索引的示范模型
type Article struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Author      string         `json:"author"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	Popularity  float64        `json:"popularity"`
	Published   bool           `json:"published"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	// Attachments 序列化无保证的扩展负载，字段值在运行时可能无法编码
	Attachments map[string]any `json:"-" gorm:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewArticle 创建文章
func NewArticle(title, body, author string, tags []string) *Article {
	now := time.Now()
	return &Article{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Author:    author,
		Tags:      pq.StringArray(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SearchObjectID 实现 DocumentSource
func (a *Article) SearchObjectID() string {
	return a.ID
}

// SearchFields 实现 DocumentSource
// 返回候选字段的当前值，序列化过滤由文档构建器完成
func (a *Article) SearchFields(index string) map[string]any {
	fields := map[string]any{
		"title":      a.Title,
		"body":       a.Body,
		"author":     a.Author,
		"tags":       []string(a.Tags),
		"popularity": a.Popularity,
		"published":  a.Published,
	}
	if a.PublishedAt != nil {
		fields["published_at"] = a.PublishedAt.Format(time.RFC3339)
	}
	if a.Attachments != nil {
		fields["attachments"] = a.Attachments
	}
	return fields
}

// RankedArticle 带检索排名注解的文章
// SearchRank 是命中列表中的 0 起始位置，结果排序以它为准而非评分
type RankedArticle struct {
	Article
	SearchScore float64 `json:"search_score" gorm:"column:search_score"`
	SearchRank  int     `json:"search_rank" gorm:"column:search_rank"`
}
