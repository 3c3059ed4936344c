// Package main 全量重建索引命令行工具（reindex）
// 按批次把搜索数据集推送到索引，传输层错误记录后继续
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"search-sync-svc/internal/application/sync"
	"search-sync-svc/internal/config"
	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/service"
	"search-sync-svc/internal/infrastructure/persistence/memory"
	"search-sync-svc/internal/infrastructure/persistence/postgres"
	"search-sync-svc/internal/infrastructure/search/elastic"
	"search-sync-svc/pkg/errors"
	"search-sync-svc/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		indexesFlag = flag.String("indexes", "", "逗号分隔的索引名，为空表示全部已配置索引")
		batchSize   = flag.Int("batch-size", 0, "每批文档数，0 使用配置值")
		workers     = flag.Int("workers", 0, "并发批次数，0 使用配置值")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	esClient, err := elastic.NewClient(&cfg.Search.Elasticsearch)
	if err != nil {
		logger.Fatal(ctx, "failed to init elasticsearch", err)
	}

	articleRepo := postgres.NewArticleRepository(pgClient)
	builder := service.NewDocumentBuilder(&cfg.Search, entity.ParseUpdateStrategy(cfg.Search.UpdateStrategy))

	// 全量重建不走共享缓存，每次运行都强制重写全部文档
	syncSvc := sync.NewService(builder, esClient, memory.NewSyncCache(0), cfg.Cache.SyncCache.KeyPrefix)

	indexes := cfg.Search.IndexNames()
	if *indexesFlag != "" {
		indexes = splitIndexes(*indexesFlag)
	}
	if len(indexes) == 0 {
		logger.Fatal(ctx, "no indexes configured", nil)
	}

	size := cfg.Search.Reindex.BatchSize
	if *batchSize > 0 {
		size = *batchSize
	}
	if size <= 0 {
		size = 500
	}

	concurrency := cfg.Search.Reindex.Workers
	if *workers > 0 {
		concurrency = *workers
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	started := time.Now()
	var total int
	for _, index := range indexes {
		n, err := reindexOne(ctx, articleRepo, syncSvc, index, size, concurrency)
		if err != nil {
			logger.Fatal(ctx, "reindex aborted", err, "search_index", index)
		}
		logger.Info(ctx, "index rebuilt", "search_index", index, "documents", n)
		total += n
	}

	logger.Info(ctx, "reindex finished",
		"indexes", len(indexes),
		"documents", total,
		"elapsed", time.Since(started).String())
}

// reindexOne 重建单个索引
// 数据库错误中止运行，批次提交的传输层错误记录后跳过
func reindexOne(ctx context.Context, repo *postgres.ArticleRepository, syncSvc *sync.Service, index string, batchSize, workers int) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	total := 0
	for offset := 0; ; offset += batchSize {
		articles, err := repo.ListSearchQueryset(ctx, index, offset, batchSize)
		if err != nil {
			return total, err
		}
		if len(articles) == 0 {
			break
		}
		total += len(articles)

		batch := articles
		g.Go(func() error {
			return submitBatch(gctx, syncSvc, index, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

// submitBatch 构建并提交一批索引动作
func submitBatch(ctx context.Context, syncSvc *sync.Service, index string, articles []*entity.Article) error {
	actions := make([]entity.SearchAction, 0, len(articles))
	for _, a := range articles {
		action, err := syncSvc.AsSearchAction(a, index, entity.ActionIndex)
		if err != nil {
			logger.Error(ctx, "failed to build search action", err,
				"search_index", index,
				"object_id", a.ID)
			continue
		}
		actions = append(actions, action)
	}

	if err := syncSvc.SubmitActions(ctx, actions); err != nil {
		if errors.IsTransportError(err) {
			logger.Error(ctx, "bulk submit failed, batch skipped", err, "search_index", index)
			return nil
		}
		return err
	}
	return nil
}

func splitIndexes(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
