package memory

import (
	"context"
	"testing"
	"time"

	"search-sync-svc/internal/domain/entity"
)

func TestCheckAndSet(t *testing.T) {
	c := NewSyncCache(0)
	ctx := context.Background()
	doc := entity.SearchDocument{"title": "hello"}

	dup, err := c.CheckAndSet(ctx, "k", doc)
	if err != nil {
		t.Fatalf("first set: %v", err)
	}
	if dup {
		t.Fatal("first store reported as duplicate")
	}

	dup, err = c.CheckAndSet(ctx, "k", doc)
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if !dup {
		t.Fatal("identical document not reported as duplicate")
	}

	dup, err = c.CheckAndSet(ctx, "k", entity.SearchDocument{"title": "changed"})
	if err != nil {
		t.Fatalf("changed set: %v", err)
	}
	if dup {
		t.Fatal("changed document reported as duplicate")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewSyncCache(0)
	ctx := context.Background()
	doc := entity.SearchDocument{"title": "hello"}

	if _, err := c.CheckAndSet(ctx, "k", doc); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx, "k"); err != nil {
		t.Fatal(err)
	}

	dup, err := c.CheckAndSet(ctx, "k", doc)
	if err != nil {
		t.Fatal(err)
	}
	if dup {
		t.Fatal("invalidated entry still deduplicates")
	}
}

func TestExpiredEntryNotDuplicate(t *testing.T) {
	c := NewSyncCache(time.Millisecond)
	ctx := context.Background()
	doc := entity.SearchDocument{"title": "hello"}

	if _, err := c.CheckAndSet(ctx, "k", doc); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	dup, err := c.CheckAndSet(ctx, "k", doc)
	if err != nil {
		t.Fatal(err)
	}
	if dup {
		t.Fatal("expired entry reported as duplicate")
	}
}
