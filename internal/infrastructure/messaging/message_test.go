package messaging

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{
		Initial:    time.Second,
		Max:        10 * time.Second,
		Multiplier: 2,
	}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.CalculateBackoff(tt.retry); got != tt.want {
			t.Fatalf("retry %d: got %s, want %s", tt.retry, got, tt.want)
		}
	}
}

func TestMessagePayloadRoundTrip(t *testing.T) {
	change := &ArticleChangeMessage{
		ArticleID:    "a-1",
		Indexes:      []string{"articles"},
		UpdateFields: []string{"title"},
	}

	msg, err := NewMessage("m-1", TypeArticleUpdated, "articles", "a-1", change)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	var got ArticleChangeMessage
	if err := msg.UnmarshalPayload(&got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.ArticleID != "a-1" || len(got.Indexes) != 1 || got.UpdateFields[0] != "title" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestDLQStreamName(t *testing.T) {
	if got := StreamEntitySync.DLQStream(); got != "dlq:stream:entity:sync" {
		t.Fatalf("dlq stream = %q", got)
	}
}
