package config

import "testing"

func TestIndexProperties(t *testing.T) {
	cfg := SearchConfig{
		Indexes: map[string]IndexConfig{
			"articles": {Properties: []string{"title", "body"}},
		},
	}

	props := cfg.IndexProperties("articles")
	if len(props) != 2 {
		t.Fatalf("got %d properties, want 2", len(props))
	}

	// 未配置的索引返回 nil，文档构建器据此放行全部可序列化字段
	if got := cfg.IndexProperties("unknown"); got != nil {
		t.Fatalf("unconfigured index: got %v, want nil", got)
	}
}

func TestIndexNames(t *testing.T) {
	cfg := SearchConfig{
		Indexes: map[string]IndexConfig{
			"articles": {},
			"authors":  {},
		},
	}

	names := cfg.IndexNames()
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["articles"] || !seen["authors"] {
		t.Fatalf("names = %v", names)
	}
}
