// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"search-sync-svc/internal/application/search"
	"search-sync-svc/internal/config"
	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	"search-sync-svc/internal/interfaces/http/dto"
	"search-sync-svc/pkg/errors"
	"search-sync-svc/pkg/logger"
)

// SearchHandler 检索处理器
type SearchHandler struct {
	svc *search.Service
	cfg *config.Config
}

// NewSearchHandler 创建检索处理器
func NewSearchHandler(svc *search.Service, cfg *config.Config) *SearchHandler {
	return &SearchHandler{
		svc: svc,
		cfg: cfg,
	}
}

// knownIndex 检查索引是否在配置中注册
func (h *SearchHandler) knownIndex(index string) bool {
	if h.cfg == nil || len(h.cfg.Search.Indexes) == 0 {
		return true
	}
	_, ok := h.cfg.Search.Indexes[index]
	return ok
}

// Search 执行检索
// @Summary 执行检索
// @Description 对指定索引执行查询并记录查询日志
// @Tags Search
// @Accept json
// @Produce json
// @Param index path string true "索引名"
// @Param body body dto.SearchRequest true "查询体"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/search/{index} [post]
func (h *SearchHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	index := c.Param("index")
	if !h.knownIndex(index) {
		dto.NotFound(c, "index not registered")
		return
	}

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body")
		return
	}

	userID := c.GetString("user_id")

	out, err := h.svc.Execute(ctx, search.ExecuteInput{
		Index:     index,
		Query:     req.Query,
		UserID:    userID,
		Reference: req.Reference,
		QueryType: entity.QueryType(req.QueryType),
	})
	if err != nil {
		logger.Error(ctx, "search execution failed", err, "search_index", index)
		if errors.IsTransportError(err) {
			dto.ServiceUnavailable(c, "search engine unavailable")
			return
		}
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
				ErrorCode: string(appErr.Code),
				Details:   appErr.Detail,
			})
			return
		}
		dto.InternalError(c, "search failed")
		return
	}

	dto.Success(c, dto.ToSearchResponse(out))
}

// GetQuery 获取查询日志
// @Summary 获取查询日志
// @Description 按 ID 获取一条查询日志记录
// @Tags Search
// @Produce json
// @Param id path string true "查询记录 ID"
// @Success 200 {object} dto.Response[dto.SearchQueryResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/queries/{id} [get]
func (h *SearchHandler) GetQuery(c *gin.Context) {
	ctx := c.Request.Context()

	id := c.Param("id")
	sq, err := h.svc.GetQuery(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get search query", err, "query_id", id)
		dto.InternalError(c, "failed to get search query")
		return
	}
	if sq == nil {
		dto.NotFound(c, "search query not found")
		return
	}

	dto.Success(c, dto.ToSearchQueryResponse(sq))
}

// InIndexResponse 索引归属检查响应
type InIndexResponse struct {
	Index    string `json:"index"`
	ObjectID string `json:"object_id"`
	InIndex  bool   `json:"in_index"`
}

// InIndex 检查对象是否属于索引的搜索数据集
// @Summary 索引归属检查
// @Description 检查对象当前是否应出现在指定索引
// @Tags Search
// @Produce json
// @Param index path string true "索引名"
// @Param id path string true "对象 ID"
// @Success 200 {object} dto.Response[InIndexResponse]
// @Router /api/v1/search/{index}/articles/{id} [get]
func (h *SearchHandler) InIndex(c *gin.Context) {
	ctx := c.Request.Context()

	index := c.Param("index")
	if !h.knownIndex(index) {
		dto.NotFound(c, "index not registered")
		return
	}
	id := c.Param("id")

	ok, err := h.svc.InSearchIndex(ctx, index, id)
	if err != nil {
		logger.Error(ctx, "failed to check index membership", err, "search_index", index, "object_id", id)
		dto.InternalError(c, "failed to check index membership")
		return
	}

	dto.Success(c, InIndexResponse{Index: index, ObjectID: id, InIndex: ok})
}

// ListQueries 获取索引的查询日志列表
// @Summary 获取查询日志列表
// @Description 按执行时间倒序返回索引的查询日志
// @Tags Search
// @Produce json
// @Param index path string true "索引名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.SearchQueryResponse]
// @Router /api/v1/search/{index}/queries [get]
func (h *SearchHandler) ListQueries(c *gin.Context) {
	ctx := c.Request.Context()

	index := c.Param("index")
	pageReq := dto.BindPage(c)

	result, err := h.svc.ListQueries(ctx, index, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list search queries", err, "search_index", index)
		dto.InternalError(c, "failed to list search queries")
		return
	}

	resp := dto.ToSearchQueryListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}
