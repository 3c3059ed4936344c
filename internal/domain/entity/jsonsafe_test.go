package entity

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestJSONSafeTime(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	got := JSONSafe(ts)
	if got != "2026-03-14T09:26:53Z" {
		t.Fatalf("got %v, want RFC 3339 string", got)
	}

	got = JSONSafe(&ts)
	if got != "2026-03-14T09:26:53Z" {
		t.Fatalf("pointer time: got %v", got)
	}

	var nilTime *time.Time
	if got := JSONSafe(nilTime); got != nil {
		t.Fatalf("nil pointer time: got %v, want nil", got)
	}
}

func TestJSONSafeUnencodableFallsBackToString(t *testing.T) {
	got := JSONSafe(math.NaN())
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected string fallback, got %T", got)
	}
	if s == "" {
		t.Fatal("expected non-empty string representation")
	}

	// 转换结果必须可编码
	if _, err := json.Marshal(got); err != nil {
		t.Fatalf("sanitized value still unencodable: %v", err)
	}
}

func TestJSONSafeRecurses(t *testing.T) {
	in := map[string]any{
		"when":   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		"scores": []any{1.0, math.Inf(1)},
		"nested": map[string]any{"bad": math.NaN()},
		"ok":     "text",
	}

	out, ok := JSONSafe(in).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", JSONSafe(in))
	}
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("sanitized map still unencodable: %v", err)
	}
	if out["when"] != "2026-01-01T00:00:00Z" {
		t.Fatalf("nested time not converted: %v", out["when"])
	}
	if out["ok"] != "text" {
		t.Fatalf("plain value changed: %v", out["ok"])
	}

	// 原始 map 不被修改
	if _, isTime := in["when"].(time.Time); !isTime {
		t.Fatal("input map mutated")
	}
}

func TestSafeHitsCopies(t *testing.T) {
	hits := []Hit{
		{ID: "a", Extra: map[string]any{"bad": math.NaN()}},
		{ID: "b"},
	}

	safe := SafeHits(hits)
	if len(safe) != 2 {
		t.Fatalf("got %d hits, want 2", len(safe))
	}
	if _, err := json.Marshal(safe); err != nil {
		t.Fatalf("safe hits unencodable: %v", err)
	}
	if _, isFloat := hits[0].Extra["bad"].(float64); !isFloat {
		t.Fatal("original hit mutated")
	}
}

func TestSafeQueryNil(t *testing.T) {
	if got := SafeQuery(nil); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
