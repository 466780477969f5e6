package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/api/middleware"
	"github.com/Vjnishad/mescon/internal/auth"
	"github.com/Vjnishad/mescon/internal/models"
)

// fakePresence marks the listed identities as online.
type fakePresence map[string]bool

func (p fakePresence) IsOnline(identity string) bool { return p[identity] }

// fakeDataStore serves a canned contact list; the other operations are unused
// by these tests.
type fakeDataStore struct {
	contacts []models.ContactView
}

func (s *fakeDataStore) Close()                     {}
func (s *fakeDataStore) Ping(context.Context) error { return nil }
func (s *fakeDataStore) EnsureUser(context.Context, string) (*models.User, error) {
	return nil, nil
}
func (s *fakeDataStore) GetUser(context.Context, string) (*models.User, error) { return nil, nil }
func (s *fakeDataStore) UpdateUser(context.Context, string, string, string) (*models.User, error) {
	return nil, nil
}
func (s *fakeDataStore) ListContacts(context.Context, string) ([]models.ContactView, error) {
	return s.contacts, nil
}
func (s *fakeDataStore) AddContact(context.Context, string, string, string) (*models.Contact, error) {
	return nil, nil
}
func (s *fakeDataStore) UpdateContactName(context.Context, string, string, string) error {
	return nil
}
func (s *fakeDataStore) DeleteContact(context.Context, string, string) error { return nil }
func (s *fakeDataStore) AppendMessage(context.Context, *models.Message) error {
	return nil
}
func (s *fakeDataStore) ListMessagesForUser(context.Context, string) ([]models.Message, error) {
	return nil, nil
}

func TestListContactsReportsLivePresence(t *testing.T) {
	db := &fakeDataStore{contacts: []models.ContactView{
		{ID: "+911111111111", Name: "Asha"},
		{ID: "+912222222222", Name: "Bala"},
	}}
	presence := fakePresence{"+911111111111": true}

	tokens := auth.NewTokens("test-secret", time.Hour)
	h := NewHandler(db, nil, tokens, nil, nil, presence, zerolog.Nop())

	token, err := tokens.Sign("+910000000000")
	if err != nil {
		t.Fatal(err)
	}

	handler := middleware.NewAuthMiddleware(tokens).RequireAuth(http.HandlerFunc(h.ListContacts))
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got []models.ContactView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(got))
	}
	if !got[0].Online {
		t.Fatalf("contact %s has a live connection and must show online", got[0].ID)
	}
	if got[1].Online {
		t.Fatalf("contact %s has no connection and must show offline", got[1].ID)
	}
}
