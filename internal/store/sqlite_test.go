package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Vjnishad/mescon/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestEnsureUserIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureUser(ctx, "+919876543210")
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "User 3210" {
		t.Fatalf("unexpected default name %q", first.Name)
	}
	if first.Avatar == "" {
		t.Fatal("expected a placeholder avatar")
	}

	// Rename, then ensure again; the row must survive untouched.
	if _, err := s.UpdateUser(ctx, "+919876543210", "Asha", first.Avatar); err != nil {
		t.Fatal(err)
	}
	again, err := s.EnsureUser(ctx, "+919876543210")
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "Asha" {
		t.Fatalf("EnsureUser overwrote existing profile: %+v", again)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUser(context.Background(), "+10000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateUser(context.Background(), "+10000000000", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, m := range []models.Message{
		{SenderID: "alice", RecipientID: "bob", Text: "one"},
		{SenderID: "bob", RecipientID: "alice", Text: "two"},
		{SenderID: "alice", RecipientID: "carol", Text: "three"},
		{SenderID: "dave", RecipientID: "erin", Text: "unrelated"},
	} {
		m.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := s.AppendMessage(ctx, &m); err != nil {
			t.Fatal(err)
		}
		if m.ID == "" {
			t.Fatal("AppendMessage must assign an id when absent")
		}
	}

	msgs, err := s.ListMessagesForUser(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages for alice, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Fatal("messages must be ordered by timestamp ascending")
		}
	}
	if msgs[0].Text != "one" || msgs[1].Text != "two" || msgs[2].Text != "three" {
		t.Fatalf("unexpected order: %+v", msgs)
	}
}

func TestContactsCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureUser(ctx, "+911111111111"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnsureUser(ctx, "+912222222222"); err != nil {
		t.Fatal(err)
	}

	// Adding a contact that is not a registered user fails.
	if _, err := s.AddContact(ctx, "+911111111111", "+913333333333", "Ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unregistered target, got %v", err)
	}

	contact, err := s.AddContact(ctx, "+911111111111", "+912222222222", "Bala")
	if err != nil {
		t.Fatal(err)
	}
	if contact.ID == "" {
		t.Fatal("contact id must be assigned")
	}

	if _, err := s.AddContact(ctx, "+911111111111", "+912222222222", "Bala again"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	views, err := s.ListContacts(ctx, "+911111111111")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != "+912222222222" || views[0].Name != "Bala" {
		t.Fatalf("unexpected contact list: %+v", views)
	}

	if err := s.UpdateContactName(ctx, "+911111111111", "+912222222222", "Balaji"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateContactName(ctx, "+911111111111", "+913333333333", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound renaming absent contact, got %v", err)
	}

	if err := s.DeleteContact(ctx, "+911111111111", "+912222222222"); err != nil {
		t.Fatal(err)
	}
	// Deleting again is a no-op.
	if err := s.DeleteContact(ctx, "+911111111111", "+912222222222"); err != nil {
		t.Fatal(err)
	}

	views, err = s.ListContacts(ctx, "+911111111111")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatalf("expected empty contact list, got %+v", views)
	}
}
