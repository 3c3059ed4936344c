// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"search-sync-svc/internal/domain/entity"

	"github.com/lib/pq"
)

// CreateArticleRequest 创建文章请求
type CreateArticleRequest struct {
	Title       string     `json:"title" binding:"required"`
	Body        string     `json:"body"`
	Author      string     `json:"author"`
	Tags        []string   `json:"tags,omitempty"`
	Popularity  float64    `json:"popularity"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// UpdateArticleRequest 更新文章请求
// UpdateFields 指定局部更新的字段名，为空表示全量更新
type UpdateArticleRequest struct {
	Title        *string    `json:"title,omitempty"`
	Body         *string    `json:"body,omitempty"`
	Author       *string    `json:"author,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Popularity   *float64   `json:"popularity,omitempty"`
	Published    *bool      `json:"published,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	UpdateFields []string   `json:"update_fields,omitempty"`
}

// Apply 把非空字段套用到文章实体
func (r *UpdateArticleRequest) Apply(a *entity.Article) {
	if r.Title != nil {
		a.Title = *r.Title
	}
	if r.Body != nil {
		a.Body = *r.Body
	}
	if r.Author != nil {
		a.Author = *r.Author
	}
	if r.Tags != nil {
		a.Tags = pq.StringArray(r.Tags)
	}
	if r.Popularity != nil {
		a.Popularity = *r.Popularity
	}
	if r.Published != nil {
		a.Published = *r.Published
	}
	if r.PublishedAt != nil {
		a.PublishedAt = r.PublishedAt
	}
	a.UpdatedAt = time.Now()
}

// ArticleResponse 文章响应
type ArticleResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	Popularity  float64  `json:"popularity"`
	Published   bool     `json:"published"`
	PublishedAt string   `json:"published_at,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toArticleResponse(a *entity.Article) ArticleResponse {
	resp := ArticleResponse{
		ID:         a.ID,
		Title:      a.Title,
		Body:       a.Body,
		Author:     a.Author,
		Tags:       []string(a.Tags),
		Popularity: a.Popularity,
		Published:  a.Published,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
	if a.PublishedAt != nil {
		resp.PublishedAt = a.PublishedAt.Format(time.RFC3339)
	}
	return resp
}

// ToArticleResponse 转换文章实体
func ToArticleResponse(a *entity.Article) *ArticleResponse {
	resp := toArticleResponse(a)
	return &resp
}
