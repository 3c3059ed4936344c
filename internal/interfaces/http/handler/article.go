// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"search-sync-svc/internal/config"
	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	"search-sync-svc/internal/infrastructure/messaging"
	"search-sync-svc/internal/interfaces/http/dto"
	"search-sync-svc/pkg/logger"
)

// ArticleHandler 文章处理器
// 写操作落库后发布变更事件，索引同步由消费端异步完成
type ArticleHandler struct {
	articleRepo repository.ArticleRepository
	txMgr       repository.Transactor
	producer    *messaging.Producer
	cfg         *config.Config
}

// NewArticleHandler 创建文章处理器
func NewArticleHandler(articleRepo repository.ArticleRepository, txMgr repository.Transactor, producer *messaging.Producer, cfg *config.Config) *ArticleHandler {
	return &ArticleHandler{
		articleRepo: articleRepo,
		txMgr:       txMgr,
		producer:    producer,
		cfg:         cfg,
	}
}

// publishChange 发布变更事件
// 发布失败只记录日志，不影响写请求结果，遗漏由全量重建索引兜底
func (h *ArticleHandler) publishChange(ctx context.Context, msgType, articleID string, updateFields []string) {
	if h.producer == nil {
		return
	}
	_, err := h.producer.PublishArticleChange(ctx, msgType, &messaging.ArticleChangeMessage{
		ArticleID:    articleID,
		Indexes:      h.cfg.Search.IndexNames(),
		UpdateFields: updateFields,
	})
	if err != nil {
		logger.Error(ctx, "failed to publish article change", err,
			"message_type", msgType,
			"article_id", articleID)
	}
}

// CreateArticle 创建文章
// @Summary 创建文章
// @Description 创建文章并发布索引同步事件
// @Tags Articles
// @Accept json
// @Produce json
// @Param body body dto.CreateArticleRequest true "文章信息"
// @Success 201 {object} dto.Response[dto.ArticleResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/articles [post]
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body")
		return
	}

	article := entity.NewArticle(req.Title, req.Body, req.Author, req.Tags)
	article.Popularity = req.Popularity
	article.Published = req.Published
	article.PublishedAt = req.PublishedAt

	if err := h.articleRepo.Create(ctx, article); err != nil {
		logger.Error(ctx, "failed to create article", err)
		dto.InternalError(c, "failed to create article")
		return
	}

	h.publishChange(ctx, messaging.TypeArticleCreated, article.ID, nil)

	dto.Created(c, dto.ToArticleResponse(article))
}

// GetArticle 获取文章
// @Summary 获取文章
// @Tags Articles
// @Produce json
// @Param id path string true "文章 ID"
// @Success 200 {object} dto.Response[dto.ArticleResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/articles/{id} [get]
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id := c.Param("id")
	article, err := h.articleRepo.GetByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get article", err, "article_id", id)
		dto.InternalError(c, "failed to get article")
		return
	}
	if article == nil {
		dto.NotFound(c, "article not found")
		return
	}

	dto.Success(c, dto.ToArticleResponse(article))
}

// UpdateArticle 更新文章
// @Summary 更新文章
// @Description 更新文章并发布索引同步事件，update_fields 非空时走局部更新
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "文章 ID"
// @Param body body dto.UpdateArticleRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ArticleResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/articles/{id} [put]
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id := c.Param("id")
	var req dto.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body")
		return
	}

	var article *entity.Article
	err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		found, err := h.articleRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if found == nil {
			return nil
		}
		req.Apply(found)
		if err := h.articleRepo.Update(txCtx, found); err != nil {
			return err
		}
		article = found
		return nil
	})
	if err != nil {
		logger.Error(ctx, "failed to update article", err, "article_id", id)
		dto.InternalError(c, "failed to update article")
		return
	}
	if article == nil {
		dto.NotFound(c, "article not found")
		return
	}

	h.publishChange(ctx, messaging.TypeArticleUpdated, article.ID, req.UpdateFields)

	dto.Success(c, dto.ToArticleResponse(article))
}

// DeleteArticle 删除文章
// @Summary 删除文章
// @Description 删除文章并发布索引移除事件
// @Tags Articles
// @Produce json
// @Param id path string true "文章 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/articles/{id} [delete]
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id := c.Param("id")
	found := false
	err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		article, err := h.articleRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if article == nil {
			return nil
		}
		found = true
		return h.articleRepo.Delete(txCtx, id)
	})
	if err != nil {
		logger.Error(ctx, "failed to delete article", err, "article_id", id)
		dto.InternalError(c, "failed to delete article")
		return
	}
	if !found {
		dto.NotFound(c, "article not found")
		return
	}

	h.publishChange(ctx, messaging.TypeArticleDeleted, id, nil)

	dto.NoContent(c)
}
