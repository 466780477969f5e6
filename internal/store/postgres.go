package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/Vjnishad/mescon/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT DEFAULT '',
		avatar TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		contact_user_id TEXT NOT NULL REFERENCES users(id),
		custom_name TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE(user_id, contact_user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		text TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id, timestamp);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureUser creates the user row if it does not exist and returns it.
func (s *PostgresStore) EnsureUser(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, avatar, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET id = users.id
		RETURNING id, name, avatar, created_at
	`, id, defaultName(id), defaultAvatar(id), time.Now().UTC()).Scan(
		&user.ID,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, avatar, created_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user's profile fields and returns the updated row.
func (s *PostgresStore) UpdateUser(ctx context.Context, id, name, avatar string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, avatar = $3 WHERE id = $1
		RETURNING id, name, avatar, created_at
	`, id, name, avatar).Scan(
		&user.ID,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListContacts retrieves the owner's contact list joined with the contacts'
// profile rows.
func (s *PostgresStore) ListContacts(ctx context.Context, ownerID string) ([]models.ContactView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.contact_user_id, c.custom_name, u.avatar
		FROM contacts c
		JOIN users u ON u.id = c.contact_user_id
		WHERE c.user_id = $1
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
func (s *PostgresStore) AddContact(ctx context.Context, ownerID, contactUserID, customName string) (*models.Contact, error) {
	if _, err := s.GetUser(ctx, contactUserID); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		ContactUserID: contactUserID,
		CustomName:    customName,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO contacts (id, user_id, contact_user_id, custom_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, contact.ID, contact.UserID, contact.ContactUserID, contact.CustomName, contact.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return contact, nil
}

// UpdateContactName renames an existing contact entry.
func (s *PostgresStore) UpdateContactName(ctx context.Context, ownerID, contactUserID, customName string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contacts SET custom_name = $3 WHERE user_id = $1 AND contact_user_id = $2
	`, ownerID, contactUserID, customName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes a contact entry. Deleting an absent entry is a no-op.
func (s *PostgresStore) DeleteContact(ctx context.Context, ownerID, contactUserID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM contacts WHERE user_id = $1 AND contact_user_id = $2
	`, ownerID, contactUserID)
	return err
}

// AppendMessage durably persists one message.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, text, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.SenderID, msg.RecipientID, msg.Text, msg.Timestamp)
	return err
}

// ListMessagesForUser retrieves every message the user sent or received,
// ordered by timestamp ascending.
func (s *PostgresStore) ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, text, timestamp
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY timestamp ASC
	`, userID)
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
