package history

import (
	"context"
	"testing"
	"time"

	"github.com/Vjnishad/mescon/internal/models"
)

// stubLister returns a fixed, pre-ordered message slice.
type stubLister struct {
	messages []models.Message
	err      error
}

func (s *stubLister) ListMessagesForUser(_ context.Context, _ string) ([]models.Message, error) {
	return s.messages, s.err
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func TestHistoryPartitionAndOrder(t *testing.T) {
	t1 := ts(t, "2025-01-01T10:00:00Z")
	t2 := ts(t, "2025-01-01T10:05:00Z")

	svc := NewService(&stubLister{messages: []models.Message{
		{SenderID: "alice", RecipientID: "bob", Text: "x", Timestamp: t1},
		{SenderID: "bob", RecipientID: "alice", Text: "y", Timestamp: t2},
	}})

	threads, err := svc.History(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if len(threads) != 1 {
		t.Fatalf("expected 1 counterpart, got %d", len(threads))
	}
	thread := threads["bob"]
	if len(thread) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(thread))
	}

	if thread[0].Text != "x" || thread[0].Sender != "me" || thread[0].Timestamp != t1.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected first entry: %+v", thread[0])
	}
	if thread[1].Text != "y" || thread[1].Sender != "them" || thread[1].Timestamp != t2.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected second entry: %+v", thread[1])
	}
}

func TestHistoryMultipleCounterparts(t *testing.T) {
	t1 := ts(t, "2025-01-01T09:00:00Z")
	t2 := ts(t, "2025-01-01T09:01:00Z")
	t3 := ts(t, "2025-01-01T09:02:00Z")

	svc := NewService(&stubLister{messages: []models.Message{
		{SenderID: "carol", RecipientID: "alice", Text: "hey", Timestamp: t1},
		{SenderID: "alice", RecipientID: "bob", Text: "hi bob", Timestamp: t2},
		{SenderID: "alice", RecipientID: "carol", Text: "hey back", Timestamp: t3},
	}})

	threads, err := svc.History(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if len(threads) != 2 {
		t.Fatalf("expected 2 counterparts, got %d", len(threads))
	}
	if len(threads["carol"]) != 2 || len(threads["bob"]) != 1 {
		t.Fatalf("unexpected partition: carol=%d bob=%d", len(threads["carol"]), len(threads["bob"]))
	}
	if threads["carol"][0].Sender != "them" || threads["carol"][1].Sender != "me" {
		t.Fatal("direction labels wrong for carol thread")
	}
}

func TestHistoryEmpty(t *testing.T) {
	svc := NewService(&stubLister{})

	threads, err := svc.History(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) != 0 {
		t.Fatalf("expected empty map, got %v", threads)
	}
}
