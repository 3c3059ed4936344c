package search

import (
	"context"
	"testing"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	"search-sync-svc/pkg/errors"
)

func score(v float64) *float64 { return &v }

// fakeSearchEngine 只实现 Search 的引擎替身
type fakeSearchEngine struct {
	result   *repository.SearchResult
	failWith error
	calls    int
}

func (e *fakeSearchEngine) Index(ctx context.Context, index, id string, doc entity.SearchDocument) error {
	return nil
}

func (e *fakeSearchEngine) Update(ctx context.Context, index, id string, doc entity.SearchDocument) error {
	return nil
}

func (e *fakeSearchEngine) Delete(ctx context.Context, index, id string) error { return nil }

func (e *fakeSearchEngine) Get(ctx context.Context, index, id string) (entity.SearchDocument, error) {
	return nil, nil
}

func (e *fakeSearchEngine) Bulk(ctx context.Context, actions []entity.SearchAction) error {
	return nil
}

func (e *fakeSearchEngine) Search(ctx context.Context, index string, query map[string]any) (*repository.SearchResult, error) {
	e.calls++
	if e.failWith != nil {
		return nil, e.failWith
	}
	return e.result, nil
}

// fakeQueryRepo 追加式查询日志替身
type fakeQueryRepo struct {
	saved    []*entity.SearchQuery
	failWith error
}

func (r *fakeQueryRepo) Save(ctx context.Context, sq *entity.SearchQuery) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.saved = append(r.saved, sq)
	return nil
}

func (r *fakeQueryRepo) GetByID(ctx context.Context, id string) (*entity.SearchQuery, error) {
	for _, sq := range r.saved {
		if sq.ID == id {
			return sq, nil
		}
	}
	return nil, nil
}

func (r *fakeQueryRepo) ListByIndex(ctx context.Context, index string, p repository.Pagination) (*repository.PagedResult[*entity.SearchQuery], error) {
	items := make([]*entity.SearchQuery, 0)
	for _, sq := range r.saved {
		if sq.Index == index {
			items = append(items, sq)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

// fakeArticleRepo 以内存映射模拟排名还原
type fakeArticleRepo struct {
	articles map[string]*entity.Article
}

func (r *fakeArticleRepo) Create(ctx context.Context, a *entity.Article) error { return nil }

func (r *fakeArticleRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	return r.articles[id], nil
}

func (r *fakeArticleRepo) Update(ctx context.Context, a *entity.Article) error { return nil }

func (r *fakeArticleRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *fakeArticleRepo) ListSearchQueryset(ctx context.Context, index string, offset, limit int) ([]*entity.Article, error) {
	return nil, nil
}

func (r *fakeArticleRepo) InSearchIndex(ctx context.Context, index string, id string) (bool, error) {
	_, ok := r.articles[id]
	return ok, nil
}

func (r *fakeArticleRepo) FromSearchQuery(ctx context.Context, sq *entity.SearchQuery) ([]*entity.RankedArticle, error) {
	out := make([]*entity.RankedArticle, 0, len(sq.Hits))
	for i, h := range sq.Hits {
		a, ok := r.articles[h.ID]
		if !ok {
			continue
		}
		out = append(out, &entity.RankedArticle{
			Article:     *a,
			SearchScore: h.ScoreValue(),
			SearchRank:  i,
		})
	}
	return out, nil
}

func newTestSearchService(result *repository.SearchResult, articles map[string]*entity.Article) (*Service, *fakeSearchEngine, *fakeQueryRepo) {
	engine := &fakeSearchEngine{result: result}
	queries := &fakeQueryRepo{}
	svc := NewService(engine, queries, &fakeArticleRepo{articles: articles})
	return svc, engine, queries
}

func matchQuery(terms string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"match": map[string]any{"title": terms},
		},
	}
}

func TestExecuteRecordsQueryAndRanksArticles(t *testing.T) {
	articles := map[string]*entity.Article{
		"a": {ID: "a", Title: "first"},
		"b": {ID: "b", Title: "second"},
	}
	result := &repository.SearchResult{
		Hits: []entity.Hit{
			{ID: "b", Score: score(3.2)},
			{ID: "a", Score: score(1.1)},
		},
		TotalHits: 2,
	}
	svc, _, queries := newTestSearchService(result, articles)

	out, err := svc.Execute(context.Background(), ExecuteInput{
		Index:  "articles",
		Query:  matchQuery("go"),
		UserID: "u-1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(queries.saved) != 1 {
		t.Fatalf("saved %d queries, want 1", len(queries.saved))
	}
	sq := queries.saved[0]
	if sq.QueryType != entity.QueryTypeSearch {
		t.Fatalf("query type = %s", sq.QueryType)
	}
	if sq.UserID != "u-1" {
		t.Fatalf("user id = %q", sq.UserID)
	}
	if sq.TotalHits != 2 {
		t.Fatalf("total hits = %d", sq.TotalHits)
	}

	// 文章顺序跟随命中顺序，而非任何数据库排序
	if len(out.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(out.Articles))
	}
	if out.Articles[0].ID != "b" || out.Articles[1].ID != "a" {
		t.Fatalf("order = [%s, %s], want [b, a]", out.Articles[0].ID, out.Articles[1].ID)
	}
	if out.Articles[0].SearchRank != 0 || out.Articles[1].SearchRank != 1 {
		t.Fatalf("ranks = [%d, %d]", out.Articles[0].SearchRank, out.Articles[1].SearchRank)
	}
}

func TestExecuteSkipsMissingArticles(t *testing.T) {
	articles := map[string]*entity.Article{
		"a": {ID: "a", Title: "only this one exists"},
	}
	result := &repository.SearchResult{
		Hits: []entity.Hit{
			{ID: "gone", Score: score(5)},
			{ID: "a", Score: score(1)},
		},
		TotalHits: 2,
	}
	svc, _, _ := newTestSearchService(result, articles)

	out, err := svc.Execute(context.Background(), ExecuteInput{Index: "articles", Query: matchQuery("x")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out.Articles) != 1 || out.Articles[0].ID != "a" {
		t.Fatalf("articles = %v", out.Articles)
	}
}

func TestExecuteRecordsErrorAndPropagates(t *testing.T) {
	svc, engine, queries := newTestSearchService(nil, nil)
	engine.failWith = errors.NewTransportError(503, "unavailable", nil)

	_, err := svc.Execute(context.Background(), ExecuteInput{Index: "articles", Query: matchQuery("x")})
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
	if !errors.IsTransportError(err) {
		t.Fatalf("error lost transport classification: %v", err)
	}

	// 失败也要留痕，类型为 ERROR
	if len(queries.saved) != 1 {
		t.Fatalf("saved %d queries, want 1", len(queries.saved))
	}
	if queries.saved[0].QueryType != entity.QueryTypeError {
		t.Fatalf("query type = %s, want ERROR", queries.saved[0].QueryType)
	}
	if queries.saved[0].TotalHits != 0 {
		t.Fatalf("total hits = %d, want 0", queries.saved[0].TotalHits)
	}
}

func TestExecuteHonorsExplicitQueryType(t *testing.T) {
	result := &repository.SearchResult{TotalHits: 0}
	svc, _, queries := newTestSearchService(result, nil)

	_, err := svc.Execute(context.Background(), ExecuteInput{
		Index:     "articles",
		Query:     matchQuery("x"),
		QueryType: entity.QueryTypeSuggest,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if queries.saved[0].QueryType != entity.QueryTypeSuggest {
		t.Fatalf("query type = %s, want SUGGEST", queries.saved[0].QueryType)
	}
}

func TestGetQueryRoundTrip(t *testing.T) {
	result := &repository.SearchResult{TotalHits: 0}
	svc, _, _ := newTestSearchService(result, nil)

	out, err := svc.Execute(context.Background(), ExecuteInput{Index: "articles", Query: matchQuery("x")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	got, err := svc.GetQuery(context.Background(), out.Query.ID)
	if err != nil {
		t.Fatalf("get query: %v", err)
	}
	if got == nil || got.ID != out.Query.ID {
		t.Fatalf("got %v", got)
	}

	missing, err := svc.GetQuery(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown id")
	}
}
