// Package main 索引同步执行器入口（sync-worker）
// 消费文章变更事件，把关系库中的最新状态推进搜索索引
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"search-sync-svc/internal/application/sync"
	"search-sync-svc/internal/config"
	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/service"
	"search-sync-svc/internal/infrastructure/messaging"
	"search-sync-svc/internal/infrastructure/persistence/postgres"
	"search-sync-svc/internal/infrastructure/persistence/redis"
	"search-sync-svc/internal/infrastructure/search/elastic"
	"search-sync-svc/pkg/errors"
	"search-sync-svc/pkg/logger"
	"search-sync-svc/pkg/metrics"
	"search-sync-svc/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "sync-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	esClient, err := elastic.NewClient(&cfg.Search.Elasticsearch)
	if err != nil {
		logger.Fatal(ctx, "failed to init elasticsearch", err)
	}

	articleRepo := postgres.NewArticleRepository(pgClient)
	builder := service.NewDocumentBuilder(&cfg.Search, entity.ParseUpdateStrategy(cfg.Search.UpdateStrategy))
	syncCache := redis.NewSyncCache(redisClient, cfg.Cache.SyncCache.TTL)
	syncSvc := sync.NewService(builder, esClient, syncCache, cfg.Cache.SyncCache.KeyPrefix)

	w := &worker{
		cfg:         cfg,
		articleRepo: articleRepo,
		syncSvc:     syncSvc,
	}

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamEntitySync,
		Group:        messaging.ConsumerGroupSyncWorker,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})

	consumer.RegisterHandler(messaging.TypeArticleCreated, w.handleUpsert)
	consumer.RegisterHandler(messaging.TypeArticleUpdated, w.handleUpsert)
	consumer.RegisterHandler(messaging.TypeArticleDeleted, w.handleDelete)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	log := logger.FromContext(ctx)
	log.Info("sync-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("sync-worker shutting down")
	consumer.Stop()
}

// worker 事件处理器集合
type worker struct {
	cfg         *config.Config
	articleRepo *postgres.ArticleRepository
	syncSvc     *sync.Service
}

// targetIndexes 事件未携带索引时回落到全部已配置的索引
func (w *worker) targetIndexes(payload *messaging.ArticleChangeMessage) []string {
	if len(payload.Indexes) > 0 {
		return payload.Indexes
	}
	return w.cfg.Search.IndexNames()
}

// handleUpsert 处理创建与更新事件
// 文章已脱离搜索数据集时从索引移除，否则按事件携带的字段集推进索引
func (w *worker) handleUpsert(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ArticleChangeMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}

	article, err := w.articleRepo.GetByID(ctx, payload.ArticleID)
	if err != nil {
		return err
	}
	if article == nil {
		// 行已被删除，删除事件随后到达
		logger.Warn(ctx, "article missing for sync event", "article_id", payload.ArticleID)
		return nil
	}

	for _, index := range w.targetIndexes(&payload) {
		inIndex, err := w.articleRepo.InSearchIndex(ctx, index, article.ID)
		if err != nil {
			return err
		}

		if !inIndex {
			if err := w.removeFromIndex(ctx, article, index); err != nil {
				metrics.SyncEventsTotal.WithLabelValues(msg.Type, "error").Inc()
				return err
			}
			continue
		}

		if msg.Type == messaging.TypeArticleUpdated && len(payload.UpdateFields) > 0 {
			err = w.syncSvc.UpdateDocument(ctx, article, index, payload.UpdateFields)
		} else {
			err = w.syncSvc.IndexDocument(ctx, article, index)
		}
		if err != nil {
			metrics.SyncEventsTotal.WithLabelValues(msg.Type, "error").Inc()
			return err
		}
	}

	metrics.SyncEventsTotal.WithLabelValues(msg.Type, "ok").Inc()
	return nil
}

// handleDelete 处理删除事件
func (w *worker) handleDelete(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ArticleChangeMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}

	article := &entity.Article{ID: payload.ArticleID}
	for _, index := range w.targetIndexes(&payload) {
		if err := w.removeFromIndex(ctx, article, index); err != nil {
			metrics.SyncEventsTotal.WithLabelValues(msg.Type, "error").Inc()
			return err
		}
	}

	metrics.SyncEventsTotal.WithLabelValues(msg.Type, "ok").Inc()
	return nil
}

// removeFromIndex 从索引移除文档，文档不存在视为成功
func (w *worker) removeFromIndex(ctx context.Context, article *entity.Article, index string) error {
	err := w.syncSvc.DeleteDocument(ctx, article, index)
	if err != nil {
		if te := errors.AsTransportError(err); te != nil && te.StatusCode == http.StatusNotFound {
			logger.Debug(ctx, "document already absent", "search_index", index, "object_id", article.ID)
			return nil
		}
		return err
	}
	return nil
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
