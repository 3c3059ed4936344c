package postgres

import (
	"testing"

	"search-sync-svc/internal/domain/entity"
)

func score(v float64) *float64 { return &v }

func TestRankingCaseScoreExpression(t *testing.T) {
	hits := []entity.Hit{
		{ID: "b", Score: score(3.5)},
		{ID: "a", Score: nil},
	}

	expr, args := rankingCase("articles.id", hits, func(i int, h entity.Hit) any {
		return h.ScoreValue()
	})

	want := "CASE articles.id WHEN ? THEN ? WHEN ? THEN ? ELSE 0 END"
	if expr != want {
		t.Fatalf("expr = %q, want %q", expr, want)
	}
	if len(args) != 4 {
		t.Fatalf("got %d args, want 4", len(args))
	}
	if args[0] != "b" || args[2] != "a" {
		t.Fatalf("id args = [%v, %v]", args[0], args[2])
	}
	// 空评分按 0 处理
	if args[1] != 3.5 || args[3] != 0.0 {
		t.Fatalf("score args = [%v, %v]", args[1], args[3])
	}
}

func TestRankingCaseRankFollowsHitPosition(t *testing.T) {
	hits := []entity.Hit{
		{ID: "x", Score: score(1)},
		{ID: "y", Score: score(9)},
		{ID: "z", Score: score(5)},
	}

	_, args := rankingCase("articles.id", hits, func(i int, h entity.Hit) any {
		return i
	})

	// 排名值是命中位置，与评分无关
	if args[1] != 0 || args[3] != 1 || args[5] != 2 {
		t.Fatalf("rank args = [%v, %v, %v]", args[1], args[3], args[5])
	}
}

func TestRankingCaseSingleHit(t *testing.T) {
	hits := []entity.Hit{{ID: "only", Score: score(2)}}

	expr, args := rankingCase("articles.id", hits, func(i int, h entity.Hit) any {
		return h.ScoreValue()
	})

	if expr != "CASE articles.id WHEN ? THEN ? ELSE 0 END" {
		t.Fatalf("expr = %q", expr)
	}
	if len(args) != 2 {
		t.Fatalf("got %d args, want 2", len(args))
	}
}
