package models

import "time"

// User is a registered account. The ID is the verified phone number and doubles
// as the identity key for connections, contacts and messages.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is one entry in a user's personal contact list. The custom name is
// whatever the owner chose to call the other user.
type Contact struct {
	ID            string    `json:"id"` // UUID
	UserID        string    `json:"user_id"`
	ContactUserID string    `json:"contact_user_id"`
	CustomName    string    `json:"custom_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// ContactView is the joined shape returned by the contact list endpoint.
type ContactView struct {
	ID     string `json:"id"` // the contact's user id
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Online bool   `json:"online"`
}

// Message is one persisted chat message. Immutable once appended; the timestamp
// is assigned by the relay at receipt time, never taken from the client.
type Message struct {
	ID          string    `json:"id"` // ULID
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}
