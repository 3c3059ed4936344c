package service

import (
	"math"
	"testing"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/pkg/errors"
)

// testDoc 可索引的测试实体
type testDoc struct {
	id     string
	fields map[string]any
}

func (d *testDoc) SearchObjectID() string { return d.id }

func (d *testDoc) SearchFields(index string) map[string]any { return d.fields }

// staticMappings 固定映射表
type staticMappings map[string][]string

func (m staticMappings) IndexProperties(index string) []string { return m[index] }

func newTestDoc() *testDoc {
	return &testDoc{
		id: "doc-1",
		fields: map[string]any{
			"title":      "go in production",
			"popularity": 4.2,
			"published":  true,
		},
	}
}

var articleMappings = staticMappings{
	"articles": {"title", "popularity", "published"},
}

func TestBuildDocumentFiltersByMapping(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyFull)

	doc := newTestDoc()
	doc.fields["internal_note"] = "not mapped"

	got, err := b.BuildDocument(doc, "articles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got["internal_note"]; ok {
		t.Fatal("unmapped field leaked into document")
	}
	if got["title"] != "go in production" {
		t.Fatalf("title = %v", got["title"])
	}
	if len(got) != 3 {
		t.Fatalf("got %d fields, want 3", len(got))
	}
}

func TestBuildDocumentSkipsUnserializable(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyFull)

	doc := newTestDoc()
	doc.fields["popularity"] = math.NaN()

	got, err := b.BuildDocument(doc, "articles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got["popularity"]; ok {
		t.Fatal("unserializable field included in document")
	}
	if _, ok := got["title"]; !ok {
		t.Fatal("serializable fields should survive")
	}
}

func TestBuildDocumentUnconfiguredIndexIncludesAll(t *testing.T) {
	b := NewDocumentBuilder(staticMappings{}, entity.UpdateStrategyFull)

	got, err := b.BuildDocument(newTestDoc(), "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d fields, want all serializable fields", len(got))
	}
}

func TestBuildDocumentRequiresDocumentSource(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyFull)

	_, err := b.BuildDocument(struct{ Name string }{"x"}, "articles")
	if !errors.IsCode(err, errors.CodeNotImplemented) {
		t.Fatalf("expected NotImplemented, got %v", err)
	}
}

func TestIsFieldSerializable(t *testing.T) {
	doc := newTestDoc()
	doc.fields["broken"] = math.NaN()

	if !IsFieldSerializable(doc, "articles", "title") {
		t.Fatal("title should be serializable")
	}
	if IsFieldSerializable(doc, "articles", "broken") {
		t.Fatal("NaN value reported as serializable")
	}
	if IsFieldSerializable(doc, "articles", "missing") {
		t.Fatal("missing field reported as serializable")
	}
}

func TestCleanUpdateFieldsDropsUnmapped(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyPartial)

	cleaned, err := b.CleanUpdateFields(newTestDoc(), "articles", []string{"title", "internal_note"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaned) != 1 || cleaned[0] != "title" {
		t.Fatalf("cleaned = %v, want [title]", cleaned)
	}
}

func TestCleanUpdateFieldsRejectsUnserializableMapped(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyPartial)

	doc := newTestDoc()
	doc.fields["popularity"] = math.NaN()

	_, err := b.CleanUpdateFields(doc, "articles", []string{"popularity"})
	if !errors.IsCode(err, errors.CodeInvalidUpdate) {
		t.Fatalf("expected InvalidUpdate, got %v", err)
	}
}

func TestCleanUpdateFieldsRejectsMappedButAbsent(t *testing.T) {
	b := NewDocumentBuilder(staticMappings{"articles": {"title", "subtitle"}}, entity.UpdateStrategyPartial)

	// subtitle 在映射中但实体没有提供该字段
	_, err := b.CleanUpdateFields(newTestDoc(), "articles", []string{"subtitle"})
	if !errors.IsCode(err, errors.CodeInvalidUpdate) {
		t.Fatalf("expected InvalidUpdate, got %v", err)
	}
}

func TestBuildUpdateDocumentFullIgnoresFields(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyFull)

	got, err := b.BuildUpdateDocument(newTestDoc(), "articles", []string{"title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("full strategy should return complete document, got %d fields", len(got))
	}
}

func TestBuildUpdateDocumentPartialSubset(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyPartial)

	got, err := b.BuildUpdateDocument(newTestDoc(), "articles", []string{"title", "not_mapped"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d fields, want 1", len(got))
	}
	if got["title"] != "go in production" {
		t.Fatalf("title = %v", got["title"])
	}
}

func TestBuildUpdateDocumentPartialEmpty(t *testing.T) {
	b := NewDocumentBuilder(articleMappings, entity.UpdateStrategyPartial)

	got, err := b.BuildUpdateDocument(newTestDoc(), "articles", []string{"not_mapped"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty document, got %v", got)
	}
}

func TestParseUpdateStrategy(t *testing.T) {
	if entity.ParseUpdateStrategy("partial") != entity.UpdateStrategyPartial {
		t.Fatal("partial not recognized")
	}
	if entity.ParseUpdateStrategy("full") != entity.UpdateStrategyFull {
		t.Fatal("full not recognized")
	}
	if entity.ParseUpdateStrategy("bogus") != entity.UpdateStrategyFull {
		t.Fatal("unknown strategy should fall back to full")
	}
}
