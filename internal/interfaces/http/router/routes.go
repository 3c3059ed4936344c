// Package router 提供 HTTP 路由配置
package router

import (
	"search-sync-svc/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	searchHandler *handler.SearchHandler,
	articleHandler *handler.ArticleHandler,
) {
	// 检索
	searchGroup := v1.Group("/search")
	{
		searchGroup.POST("/:index", searchHandler.Search)
		searchGroup.GET("/:index/queries", searchHandler.ListQueries)
		searchGroup.GET("/:index/articles/:id", searchHandler.InIndex)
	}

	// 查询日志
	queries := v1.Group("/queries")
	{
		queries.GET("/:id", searchHandler.GetQuery)
	}

	// 文章管理
	articles := v1.Group("/articles")
	{
		articles.POST("", articleHandler.CreateArticle)
		articles.GET("/:id", articleHandler.GetArticle)
		articles.PUT("/:id", articleHandler.UpdateArticle)
		articles.DELETE("/:id", articleHandler.DeleteArticle)
	}
}
