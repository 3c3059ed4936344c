// Package sync 提供文档同步服务
// 负责把实体生命周期事件转换为对搜索引擎的写入，
// 借助同步缓存去重，避免内容未变化时的冗余网络往返
package sync

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	"search-sync-svc/internal/domain/service"
	"search-sync-svc/pkg/errors"
	"search-sync-svc/pkg/logger"
	"search-sync-svc/pkg/metrics"
	"search-sync-svc/pkg/tracer"
)

// Service 文档写入服务
// 不做重试，传输层错误原样传播，重试与退避由外层编排负责
type Service struct {
	builder *service.DocumentBuilder
	engine  repository.SearchIndexClient
	cache   repository.SyncCache
	prefix  string
}

// NewService 创建文档写入服务
func NewService(builder *service.DocumentBuilder, engine repository.SearchIndexClient, cache repository.SyncCache, keyPrefix string) *Service {
	if keyPrefix == "" {
		keyPrefix = "searchdoc"
	}
	return &Service{
		builder: builder,
		engine:  engine,
		cache:   cache,
		prefix:  keyPrefix,
	}
}

// CacheKey 计算 (实体类型, ID, 索引名) 的确定性缓存键
func (s *Service) CacheKey(obj entity.DocumentSource, index string) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.prefix, typeName(obj), obj.SearchObjectID(), index)
}

// typeName 返回实体类型的小写名称
func typeName(obj any) string {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}

// IndexDocument 创建或全量更新时写入完整文档
// 缓存判定为重复时跳过引擎调用；引擎调用失败时回收缓存条目，
// 保证失败的写入不会在缓存中伪装成功
func (s *Service) IndexDocument(ctx context.Context, obj any, index string) error {
	ctx, span := tracer.Start(ctx, "sync.IndexDocument")
	defer span.End()

	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}

	doc, err := s.builder.BuildDocument(src, index)
	if err != nil {
		return err
	}

	key := s.CacheKey(src, index)
	duplicate, err := s.cache.CheckAndSet(ctx, key, doc)
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "sync cache check failed")
	}
	if duplicate {
		metrics.SyncCacheHitsTotal.WithLabelValues("duplicate").Inc()
		metrics.DocumentsSkippedTotal.WithLabelValues(index, "duplicate").Inc()
		logger.Debug(ctx, "index skipped, document unchanged",
			"search_index", index, "object_id", src.SearchObjectID())
		return nil
	}
	metrics.SyncCacheHitsTotal.WithLabelValues("miss").Inc()

	if err := s.engine.Index(ctx, index, src.SearchObjectID(), doc); err != nil {
		metrics.EngineErrorsTotal.WithLabelValues(index, entity.ActionIndex).Inc()
		if cerr := s.cache.Invalidate(ctx, key); cerr != nil {
			logger.Warn(ctx, "failed to roll back sync cache after engine error",
				"cache_key", key, "error", cerr.Error())
		}
		return err
	}

	metrics.DocumentsIndexedTotal.WithLabelValues(index, entity.ActionIndex).Inc()
	return nil
}

// UpdateDocument 局部更新时按策略写入更新文档
// 更新文档为空意味着请求的字段没有一个有资格进入索引，
// 这与缓存去重是两种不同的无操作，分开记录
func (s *Service) UpdateDocument(ctx context.Context, obj any, index string, updateFields []string) error {
	ctx, span := tracer.Start(ctx, "sync.UpdateDocument")
	defer span.End()

	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}

	doc, err := s.builder.BuildUpdateDocument(src, index, updateFields)
	if err != nil {
		return err
	}
	if len(doc) == 0 {
		metrics.DocumentsSkippedTotal.WithLabelValues(index, "empty_update").Inc()
		logger.Debug(ctx, "update skipped, no eligible fields",
			"search_index", index, "object_id", src.SearchObjectID(),
			"requested_fields", strings.Join(updateFields, ","))
		return nil
	}

	if err := s.engine.Update(ctx, index, src.SearchObjectID(), doc); err != nil {
		metrics.EngineErrorsTotal.WithLabelValues(index, entity.ActionUpdate).Inc()
		return err
	}
	metrics.DocumentsIndexedTotal.WithLabelValues(index, entity.ActionUpdate).Inc()

	// 引擎确认后用完整文档刷新缓存，实体在手，合并后的全量表示总是可得
	full, err := s.builder.BuildDocument(src, index)
	if err != nil {
		return err
	}
	if _, err := s.cache.CheckAndSet(ctx, s.CacheKey(src, index), full); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "sync cache refresh failed")
	}
	return nil
}

// DeleteDocument 删除文档
// 无论引擎调用是否成功都使缓存失效，防止重建同一文档时被误判为重复
func (s *Service) DeleteDocument(ctx context.Context, obj any, index string) error {
	ctx, span := tracer.Start(ctx, "sync.DeleteDocument")
	defer span.End()

	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}

	err := s.engine.Delete(ctx, index, src.SearchObjectID())

	key := s.CacheKey(src, index)
	if cerr := s.cache.Invalidate(ctx, key); cerr != nil {
		logger.Warn(ctx, "failed to invalidate sync cache", "cache_key", key, "error", cerr.Error())
	}

	if err != nil {
		metrics.EngineErrorsTotal.WithLabelValues(index, entity.ActionDelete).Inc()
		return err
	}
	metrics.DocumentsIndexedTotal.WithLabelValues(index, entity.ActionDelete).Inc()
	return nil
}

// FetchDocument 从引擎取回当前文档，不经过缓存
// 实体没有标识（尚未保存）时报 InvalidState
func (s *Service) FetchDocument(ctx context.Context, obj any, index string) (entity.SearchDocument, error) {
	ctx, span := tracer.Start(ctx, "sync.FetchDocument")
	defer span.End()

	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return nil, errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}
	if src.SearchObjectID() == "" {
		return nil, errors.ErrInvalidState.WithDetail(fmt.Sprintf("%T", obj))
	}
	return s.engine.Get(ctx, index, src.SearchObjectID())
}

// AsSearchAction 生成引擎批量提交兼容的操作记录
// index 携带 _source 全量文档，update 携带 doc（调用方可自行替换为局部文档），
// delete 不带文档体，其余操作类型报 InvalidArgument
func (s *Service) AsSearchAction(obj any, index, action string) (entity.SearchAction, error) {
	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return entity.SearchAction{}, errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}

	base := entity.SearchAction{
		Index:  index,
		OpType: action,
		ID:     src.SearchObjectID(),
	}

	switch action {
	case entity.ActionIndex:
		doc, err := s.builder.BuildDocument(src, index)
		if err != nil {
			return entity.SearchAction{}, err
		}
		base.Source = doc
	case entity.ActionUpdate:
		doc, err := s.builder.BuildDocument(src, index)
		if err != nil {
			return entity.SearchAction{}, err
		}
		base.Doc = doc
	case entity.ActionDelete:
		// 无文档体
	default:
		return entity.SearchAction{}, errors.ErrInvalidArgument.WithDetail(action)
	}
	return base, nil
}

// SubmitActions 批量提交操作记录
func (s *Service) SubmitActions(ctx context.Context, actions []entity.SearchAction) error {
	ctx, span := tracer.Start(ctx, "sync.SubmitActions")
	defer span.End()

	if len(actions) == 0 {
		return nil
	}
	return s.engine.Bulk(ctx, actions)
}
