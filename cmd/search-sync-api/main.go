// Package main 检索同步服务 HTTP 入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"search-sync-svc/internal/application/search"
	"search-sync-svc/internal/config"
	"search-sync-svc/internal/infrastructure/messaging"
	"search-sync-svc/internal/infrastructure/persistence/postgres"
	"search-sync-svc/internal/infrastructure/persistence/redis"
	"search-sync-svc/internal/infrastructure/search/elastic"
	"search-sync-svc/internal/interfaces/http/handler"
	"search-sync-svc/internal/interfaces/http/router"
	"search-sync-svc/pkg/logger"
	"search-sync-svc/pkg/tracer"

	"github.com/joho/godotenv"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting search-sync-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化存储
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	if err := pgClient.Migrate(); err != nil {
		logger.Fatal(ctx, "failed to migrate database", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	esClient, err := elastic.NewClient(&cfg.Search.Elasticsearch)
	if err != nil {
		logger.Fatal(ctx, "failed to init elasticsearch", err)
	}

	// 组装依赖
	articleRepo := postgres.NewArticleRepository(pgClient)
	queryRepo := postgres.NewSearchQueryRepository(pgClient)
	txMgr := postgres.NewTxManager(pgClient)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))

	searchSvc := search.NewService(esClient, queryRepo, articleRepo)

	// 构建路由
	r := router.New(cfg, router.Handlers{
		Health:  handler.NewHealthHandler(pgClient, redisClient, esClient),
		Search:  handler.NewSearchHandler(searchSvc, cfg),
		Article: handler.NewArticleHandler(articleRepo, txMgr, producer, cfg),
	})

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
