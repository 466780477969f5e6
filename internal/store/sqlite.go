package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/Vjnishad/mescon/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the default backend in
// development when no Postgres DSN is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/mescon.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/mescon.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Appends come in concurrently from every connection's read loop; a single
	// writer connection keeps SQLite's locking out of the hot path.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT DEFAULT '',
		avatar TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		contact_user_id TEXT NOT NULL REFERENCES users(id),
		custom_name TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, contact_user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		text TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id, timestamp);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureUser creates the user row if it does not exist and returns it.
// New users get a derived display name and placeholder avatar.
func (s *SQLiteStore) EnsureUser(ctx context.Context, id string) (*models.User, error) {
	existing, err := s.GetUser(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, name, avatar, created_at)
		VALUES (?, ?, ?, ?)
	`, id, defaultName(id), defaultAvatar(id), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, id)
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, avatar, created_at
		FROM users WHERE id = ?
	`, id).Scan(
		&user.ID,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user's profile fields and returns the updated row.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id, name, avatar string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, avatar = ? WHERE id = ?
	`, name, avatar, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

// ListContacts retrieves the owner's contact list joined with the contacts'
// profile rows.
func (s *SQLiteStore) ListContacts(ctx context.Context, ownerID string) ([]models.ContactView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.contact_user_id, c.custom_name, u.avatar
		FROM contacts c
		JOIN users u ON u.id = c.contact_user_id
		WHERE c.user_id = ?
		ORDER BY c.custom_name
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.ContactView
	for rows.Next() {
		var v models.ContactView
		if err := rows.Scan(&v.ID, &v.Name, &v.Avatar); err != nil {
			return nil, err
		}
		contacts = append(contacts, v)
	}
	return contacts, rows.Err()
}

// AddContact inserts a contact list entry for ownerID pointing at
// contactUserID. The target user must already be registered.
func (s *SQLiteStore) AddContact(ctx context.Context, ownerID, contactUserID, customName string) (*models.Contact, error) {
	if _, err := s.GetUser(ctx, contactUserID); err != nil {
		return nil, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM contacts WHERE user_id = ? AND contact_user_id = ?
	`, ownerID, contactUserID).Scan(&exists)
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	contact := &models.Contact{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		ContactUserID: contactUserID,
		CustomName:    customName,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, user_id, contact_user_id, custom_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, contact.ID, contact.UserID, contact.ContactUserID, contact.CustomName, contact.CreatedAt)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// UpdateContactName renames an existing contact entry.
func (s *SQLiteStore) UpdateContactName(ctx context.Context, ownerID, contactUserID, customName string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE contacts SET custom_name = ? WHERE user_id = ? AND contact_user_id = ?
	`, customName, ownerID, contactUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes a contact entry. Deleting an absent entry is a no-op.
func (s *SQLiteStore) DeleteContact(ctx context.Context, ownerID, contactUserID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM contacts WHERE user_id = ? AND contact_user_id = ?
	`, ownerID, contactUserID)
	return err
}

// AppendMessage durably persists one message. Each call is a single-row
// insert, so concurrent appends from different connections cannot interleave
// within a record.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, text, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.SenderID, msg.RecipientID, msg.Text, msg.Timestamp)
	return err
}

// ListMessagesForUser retrieves every message the user sent or received,
// ordered by timestamp ascending.
func (s *SQLiteStore) ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_id, text, timestamp
		FROM messages
		WHERE sender_id = ? OR recipient_id = ?
		ORDER BY timestamp ASC
	`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Text,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// defaultName derives a readable placeholder from the phone number,
// e.g. "User 9748".
func defaultName(id string) string {
	tail := id
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "User " + tail
}

// defaultAvatar derives a placeholder avatar URL from the phone number.
func defaultAvatar(id string) string {
	tail := id
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	return fmt.Sprintf("https://placehold.co/40x40/1e88e5/ffffff?text=%s", tail)
}
