package entity

import (
	"testing"
	"time"
)

func score(v float64) *float64 {
	return &v
}

func TestNewSearchQueryDefaults(t *testing.T) {
	query := map[string]any{
		"query": map[string]any{
			"match": map[string]any{"title": "go concurrency"},
		},
	}
	sq := NewSearchQuery("articles", query, nil, 0, time.Now(), 0.02)

	if sq.ID == "" {
		t.Fatal("expected generated id")
	}
	if sq.QueryType != QueryTypeSearch {
		t.Fatalf("expected default query type SEARCH, got %s", sq.QueryType)
	}
	if sq.SearchTerms != "go concurrency" {
		t.Fatalf("unexpected search terms: %q", sq.SearchTerms)
	}
}

func TestExtractSearchTerms(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]any
		want  string
	}{
		{
			name: "query_string",
			query: map[string]any{
				"query": map[string]any{
					"query_string": map[string]any{"query": "redis streams"},
				},
			},
			want: "redis streams",
		},
		{
			name: "multi_match",
			query: map[string]any{
				"query": map[string]any{
					"multi_match": map[string]any{
						"query":  "postgres",
						"fields": []any{"title", "body"},
					},
				},
			},
			want: "postgres",
		},
		{
			name: "match with options object",
			query: map[string]any{
				"query": map[string]any{
					"match": map[string]any{
						"body": map[string]any{"query": "bulk indexing", "operator": "and"},
					},
				},
			},
			want: "bulk indexing",
		},
		{
			name:  "unparseable shape",
			query: map[string]any{"query": map[string]any{"bool": map[string]any{}}},
			want:  "",
		},
		{
			name:  "no query clause",
			query: map[string]any{"from": float64(10)},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSearchTerms(tt.query); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPagingNoHits(t *testing.T) {
	sq := &SearchQuery{Query: map[string]any{"from": float64(20), "size": float64(10)}}

	if got := sq.PageFrom(); got != 0 {
		t.Fatalf("PageFrom = %d, want 0", got)
	}
	if got := sq.PageTo(); got != 0 {
		t.Fatalf("PageTo = %d, want 0", got)
	}
	if got := sq.PageSize(); got != 0 {
		t.Fatalf("PageSize = %d, want 0", got)
	}
}

func TestPagingFirstPage(t *testing.T) {
	sq := &SearchQuery{
		Query: map[string]any{"from": float64(0), "size": float64(25)},
		Hits:  []Hit{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}

	if got := sq.PageFrom(); got != 1 {
		t.Fatalf("PageFrom = %d, want 1", got)
	}
	if got := sq.PageTo(); got != 3 {
		t.Fatalf("PageTo = %d, want 3", got)
	}
	if got := sq.PageSize(); got != 3 {
		t.Fatalf("PageSize = %d, want 3", got)
	}
}

func TestPagingOffsetPage(t *testing.T) {
	sq := &SearchQuery{
		Query: map[string]any{"from": float64(20), "size": float64(10)},
		Hits:  []Hit{{ID: "a"}, {ID: "b"}},
	}

	if got := sq.PageFrom(); got != 21 {
		t.Fatalf("PageFrom = %d, want 21", got)
	}
	if got := sq.PageTo(); got != 22 {
		t.Fatalf("PageTo = %d, want 22", got)
	}
}

func TestScoresEmptyHits(t *testing.T) {
	sq := &SearchQuery{}
	if got := sq.MaxScore(); got != 0 {
		t.Fatalf("MaxScore = %v, want 0", got)
	}
	if got := sq.MinScore(); got != 0 {
		t.Fatalf("MinScore = %v, want 0", got)
	}
}

func TestScoresNilTreatedAsZero(t *testing.T) {
	sq := &SearchQuery{
		Hits: []Hit{
			{ID: "a", Score: score(2.5)},
			{ID: "b", Score: nil},
			{ID: "c", Score: score(1.0)},
		},
	}

	if got := sq.MaxScore(); got != 2.5 {
		t.Fatalf("MaxScore = %v, want 2.5", got)
	}
	if got := sq.MinScore(); got != 0 {
		t.Fatalf("MinScore = %v, want 0", got)
	}
}

func TestObjectIDsPreserveOrder(t *testing.T) {
	sq := &SearchQuery{
		Hits: []Hit{{ID: "c"}, {ID: "a"}, {ID: "b"}},
	}

	ids := sq.ObjectIDs()
	want := []string{"c", "a", "b"}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestPageSliceMissingParams(t *testing.T) {
	sq := &SearchQuery{Query: map[string]any{"query": map[string]any{}}}
	if _, _, ok := sq.PageSlice(); ok {
		t.Fatal("expected ok=false when query has no paging params")
	}

	sq = &SearchQuery{}
	if _, _, ok := sq.PageSlice(); ok {
		t.Fatal("expected ok=false when query is nil")
	}
}
