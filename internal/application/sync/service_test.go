package sync

import (
	"context"
	"testing"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	"search-sync-svc/internal/domain/service"
	"search-sync-svc/internal/infrastructure/persistence/memory"
	"search-sync-svc/pkg/errors"
)

// fakeEngine 记录调用的引擎替身
type fakeEngine struct {
	indexCalls  int
	updateCalls int
	deleteCalls int
	bulkCalls   int
	lastDoc     entity.SearchDocument
	lastActions []entity.SearchAction
	failWith    error
}

func (e *fakeEngine) Index(ctx context.Context, index, id string, doc entity.SearchDocument) error {
	e.indexCalls++
	e.lastDoc = doc
	return e.failWith
}

func (e *fakeEngine) Update(ctx context.Context, index, id string, doc entity.SearchDocument) error {
	e.updateCalls++
	e.lastDoc = doc
	return e.failWith
}

func (e *fakeEngine) Delete(ctx context.Context, index, id string) error {
	e.deleteCalls++
	return e.failWith
}

func (e *fakeEngine) Get(ctx context.Context, index, id string) (entity.SearchDocument, error) {
	if e.failWith != nil {
		return nil, e.failWith
	}
	return entity.SearchDocument{"id": id}, nil
}

func (e *fakeEngine) Bulk(ctx context.Context, actions []entity.SearchAction) error {
	e.bulkCalls++
	e.lastActions = actions
	return e.failWith
}

func (e *fakeEngine) Search(ctx context.Context, index string, query map[string]any) (*repository.SearchResult, error) {
	return &repository.SearchResult{}, e.failWith
}

// testArticle 测试实体
type testArticle struct {
	id    string
	title string
}

func (a *testArticle) SearchObjectID() string { return a.id }

func (a *testArticle) SearchFields(index string) map[string]any {
	return map[string]any{"title": a.title}
}

type testMappings map[string][]string

func (m testMappings) IndexProperties(index string) []string { return m[index] }

func newTestService(strategy entity.UpdateStrategy) (*Service, *fakeEngine) {
	engine := &fakeEngine{}
	builder := service.NewDocumentBuilder(testMappings{"articles": {"title"}}, strategy)
	svc := NewService(builder, engine, memory.NewSyncCache(0), "searchdoc")
	return svc, engine
}

func TestCacheKeyDeterministic(t *testing.T) {
	svc, _ := newTestService(entity.UpdateStrategyFull)
	a := &testArticle{id: "42", title: "x"}

	key := svc.CacheKey(a, "articles")
	want := "searchdoc:testarticle:42:articles"
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
	if key != svc.CacheKey(a, "articles") {
		t.Fatal("cache key not deterministic")
	}
}

func TestIndexDocumentSuppressesDuplicate(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("first index: %v", err)
	}
	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("second index: %v", err)
	}
	if engine.indexCalls != 1 {
		t.Fatalf("engine.Index called %d times, want 1", engine.indexCalls)
	}

	// 内容变化后重新写入
	a.title = "changed"
	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("third index: %v", err)
	}
	if engine.indexCalls != 2 {
		t.Fatalf("engine.Index called %d times after change, want 2", engine.indexCalls)
	}
}

func TestIndexDocumentRollsBackCacheOnEngineFailure(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	engine.failWith = errors.NewTransportError(502, "bad gateway", nil)
	if err := svc.IndexDocument(ctx, a, "articles"); err == nil {
		t.Fatal("expected engine error to propagate")
	}

	// 失败的写入不能留在缓存里冒充成功
	engine.failWith = nil
	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if engine.indexCalls != 2 {
		t.Fatalf("engine.Index called %d times, want 2 (retry must not be suppressed)", engine.indexCalls)
	}
}

func TestDeleteThenIndexNotDuplicate(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := svc.DeleteDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if engine.indexCalls != 2 {
		t.Fatalf("engine.Index called %d times, want 2 (delete must invalidate cache)", engine.indexCalls)
	}
}

func TestDeleteDocumentInvalidatesCacheOnEngineFailure(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("index: %v", err)
	}

	engine.failWith = errors.NewTransportError(500, "boom", nil)
	if err := svc.DeleteDocument(ctx, a, "articles"); err == nil {
		t.Fatal("expected delete error to propagate")
	}

	// 缓存无论如何都被清掉，后续重建不会被去重吞掉
	engine.failWith = nil
	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if engine.indexCalls != 2 {
		t.Fatalf("engine.Index called %d times, want 2", engine.indexCalls)
	}
}

func TestUpdateDocumentEmptyPartialIsNoop(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyPartial)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	// 请求的字段都不在映射中，清洗后为空，不触碰引擎
	if err := svc.UpdateDocument(ctx, a, "articles", []string{"not_mapped"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.updateCalls != 0 {
		t.Fatalf("engine.Update called %d times, want 0", engine.updateCalls)
	}
	if engine.indexCalls != 0 {
		t.Fatalf("engine.Index called %d times, want 0", engine.indexCalls)
	}
}

func TestUpdateDocumentPartialSendsSubsetAndRefreshesCache(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyPartial)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	if err := svc.UpdateDocument(ctx, a, "articles", []string{"title"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if engine.updateCalls != 1 {
		t.Fatalf("engine.Update called %d times, want 1", engine.updateCalls)
	}
	if engine.lastDoc["title"] != "first" {
		t.Fatalf("partial doc = %v", engine.lastDoc)
	}

	// 更新后缓存持有全量文档，相同内容的 index 被去重
	if err := svc.IndexDocument(ctx, a, "articles"); err != nil {
		t.Fatalf("index after update: %v", err)
	}
	if engine.indexCalls != 0 {
		t.Fatalf("engine.Index called %d times, want 0 (cache refreshed by update)", engine.indexCalls)
	}
}

func TestUpdateDocumentFullStrategySendsWholeDoc(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)
	ctx := context.Background()
	a := &testArticle{id: "1", title: "first"}

	if err := svc.UpdateDocument(ctx, a, "articles", []string{"title"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if engine.updateCalls != 1 {
		t.Fatalf("engine.Update called %d times, want 1", engine.updateCalls)
	}
}

func TestFetchDocumentRequiresID(t *testing.T) {
	svc, _ := newTestService(entity.UpdateStrategyFull)

	_, err := svc.FetchDocument(context.Background(), &testArticle{id: ""}, "articles")
	if !errors.IsCode(err, errors.CodeInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

func TestAsSearchActionShapes(t *testing.T) {
	svc, _ := newTestService(entity.UpdateStrategyFull)
	a := &testArticle{id: "9", title: "bulk me"}

	idx, err := svc.AsSearchAction(a, "articles", entity.ActionIndex)
	if err != nil {
		t.Fatalf("index action: %v", err)
	}
	if idx.OpType != entity.ActionIndex || idx.ID != "9" || idx.Source == nil || idx.Doc != nil {
		t.Fatalf("index action shape: %+v", idx)
	}

	upd, err := svc.AsSearchAction(a, "articles", entity.ActionUpdate)
	if err != nil {
		t.Fatalf("update action: %v", err)
	}
	if upd.Doc == nil || upd.Source != nil {
		t.Fatalf("update action shape: %+v", upd)
	}

	del, err := svc.AsSearchAction(a, "articles", entity.ActionDelete)
	if err != nil {
		t.Fatalf("delete action: %v", err)
	}
	if del.Source != nil || del.Doc != nil {
		t.Fatalf("delete action shape: %+v", del)
	}

	if _, err := svc.AsSearchAction(a, "articles", "upsert"); !errors.IsCode(err, errors.CodeInvalidArgument) {
		t.Fatalf("expected InvalidArgument for unknown action, got %v", err)
	}
}

func TestAsSearchActionRequiresDocumentSource(t *testing.T) {
	svc, _ := newTestService(entity.UpdateStrategyFull)

	_, err := svc.AsSearchAction("not an entity", "articles", entity.ActionIndex)
	if !errors.IsCode(err, errors.CodeNotImplemented) {
		t.Fatalf("expected NotImplemented, got %v", err)
	}
}

func TestSubmitActionsEmptyIsNoop(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)

	if err := svc.SubmitActions(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.bulkCalls != 0 {
		t.Fatalf("engine.Bulk called %d times, want 0", engine.bulkCalls)
	}
}

func TestSubmitActionsDelegates(t *testing.T) {
	svc, engine := newTestService(entity.UpdateStrategyFull)
	a := &testArticle{id: "1", title: "x"}

	action, err := svc.AsSearchAction(a, "articles", entity.ActionIndex)
	if err != nil {
		t.Fatalf("action: %v", err)
	}
	if err := svc.SubmitActions(context.Background(), []entity.SearchAction{action}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if engine.bulkCalls != 1 || len(engine.lastActions) != 1 {
		t.Fatalf("bulk calls = %d, actions = %d", engine.bulkCalls, len(engine.lastActions))
	}
}

func TestTypeName(t *testing.T) {
	if got := typeName(&testArticle{}); got != "testarticle" {
		t.Fatalf("typeName = %q", got)
	}
	if got := typeName(testArticle{}); got != "testarticle" {
		t.Fatalf("typeName non-pointer = %q", got)
	}
}

var _ repository.SearchIndexClient = (*fakeEngine)(nil)
