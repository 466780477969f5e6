package store

import (
	"context"
	"errors"

	"github.com/Vjnishad/mescon/internal/models"
)

// ErrNotFound is returned when a row the caller asked for does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when an insert collides with an existing row.
var ErrDuplicate = errors.New("store: already exists")

// DataStore defines the interface for persistent storage of users, contacts
// and the message log. Both PostgresStore and SQLiteStore implement this
// interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	EnsureUser(ctx context.Context, id string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id, name, avatar string) (*models.User, error)

	// Contact operations
	ListContacts(ctx context.Context, ownerID string) ([]models.ContactView, error)
	AddContact(ctx context.Context, ownerID, contactUserID, customName string) (*models.Contact, error)
	UpdateContactName(ctx context.Context, ownerID, contactUserID, customName string) error
	DeleteContact(ctx context.Context, ownerID, contactUserID string) error

	// Message log: append-only from the relay, read by the history service.
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error)
}
