// Package history reshapes the flat message log into per-counterpart threads
// for a requesting identity. Read-only.
package history

import (
	"context"
	"time"

	"github.com/Vjnishad/mescon/internal/models"
)

// MessageLister is the slice of the data store the history service reads.
type MessageLister interface {
	ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error)
}

// Entry is one message as seen from the requesting user's side.
type Entry struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"` // "me" or "them"
	Timestamp string `json:"timestamp"`
}

// Service answers history queries.
type Service struct {
	store MessageLister
}

// NewService creates a history service over the given store.
func NewService(store MessageLister) *Service {
	return &Service{store: store}
}

// History returns the user's messages partitioned by counterpart, each thread
// ordered by timestamp ascending (the store guarantees the order; partitioning
// preserves it).
func (s *Service) History(ctx context.Context, identity string) (map[string][]Entry, error) {
	messages, err := s.store.ListMessagesForUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	threads := make(map[string][]Entry)
	for _, msg := range messages {
		counterpart := msg.SenderID
		sender := "them"
		if msg.SenderID == identity {
			counterpart = msg.RecipientID
			sender = "me"
		}
		threads[counterpart] = append(threads[counterpart], Entry{
			Text:      msg.Text,
			Sender:    sender,
			Timestamp: msg.Timestamp.Format(time.RFC3339Nano),
		})
	}
	return threads, nil
}
