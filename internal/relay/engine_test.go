package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/models"
)

// eventLog records store appends and peer deliveries in arrival order so
// tests can assert persistence strictly precedes delivery.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// fakeStore records appended messages, optionally failing.
type fakeStore struct {
	mu       sync.Mutex
	messages []models.Message
	failWith error
	log      *eventLog
}

func (s *fakeStore) AppendMessage(_ context.Context, msg *models.Message) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	s.messages = append(s.messages, *msg)
	s.mu.Unlock()
	if s.log != nil {
		s.log.add("append")
	}
	return nil
}

func (s *fakeStore) appended() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// loggingPeer records deliveries into the shared event log.
type loggingPeer struct {
	capturePeer
	name string
	log  *eventLog
}

func (p *loggingPeer) Send(payload []byte) error {
	if p.log != nil {
		p.log.add("deliver:" + p.name)
	}
	return p.capturePeer.Send(payload)
}

func newTestEngine(store MessageStore) *Engine {
	return NewEngine(NewRegistry(), store, zerolog.Nop())
}

func TestChatMessageSelfEcho(t *testing.T) {
	st := &fakeStore{}
	e := newTestEngine(st)

	alice := &capturePeer{}
	bob := &capturePeer{}
	e.Registry().Register("alice", alice)
	e.Registry().Register("bob", bob)

	e.HandleFrame(context.Background(), "alice", []byte(`{"type":"chat_message","recipient_id":"bob","text":"hi"}`))

	aliceGot := alice.received()
	bobGot := bob.received()
	if len(aliceGot) != 1 || len(bobGot) != 1 {
		t.Fatalf("expected one envelope each, got alice=%d bob=%d", len(aliceGot), len(bobGot))
	}
	if string(aliceGot[0]) != string(bobGot[0]) {
		t.Fatal("sender echo and recipient copy must be identical")
	}

	var env models.ChatEnvelope
	if err := json.Unmarshal(bobGot[0], &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != models.FrameChatMessage || env.SenderID != "alice" || env.RecipientID != "bob" || env.Text != "hi" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if _, err := time.Parse(time.RFC3339Nano, env.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
}

func TestChatMessagePersistedBeforeDelivery(t *testing.T) {
	log := &eventLog{}
	st := &fakeStore{log: log}
	e := newTestEngine(st)

	alice := &loggingPeer{name: "alice", log: log}
	bob := &loggingPeer{name: "bob", log: log}
	e.Registry().Register("alice", alice)
	e.Registry().Register("bob", bob)

	e.HandleFrame(context.Background(), "alice", []byte(`{"type":"chat_message","recipient_id":"bob","text":"hi"}`))

	events := log.all()
	want := []string{"append", "deliver:bob", "deliver:alice"}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, events)
		}
	}
}

func TestChatMessageOfflineRecipientStillPersisted(t *testing.T) {
	st := &fakeStore{}
	e := newTestEngine(st)

	alice := &capturePeer{}
	e.Registry().Register("alice", alice)

	e.HandleFrame(context.Background(), "alice", []byte(`{"type":"chat_message","recipient_id":"bob","text":"hi"}`))

	msgs := st.appended()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(msgs))
	}
	if msgs[0].SenderID != "alice" || msgs[0].RecipientID != "bob" || msgs[0].Text != "hi" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
	if msgs[0].ID == "" || msgs[0].Timestamp.IsZero() {
		t.Fatal("message id and timestamp must be assigned by the relay")
	}
	// The sender still gets the echo.
	if len(alice.received()) != 1 {
		t.Fatal("sender should receive the echo even when the recipient is offline")
	}
}

func TestChatMessageNotDeliveredWhenAppendFails(t *testing.T) {
	st := &fakeStore{failWith: errors.New("disk full")}
	e := newTestEngine(st)

	alice := &capturePeer{}
	bob := &capturePeer{}
	e.Registry().Register("alice", alice)
	e.Registry().Register("bob", bob)

	e.HandleFrame(context.Background(), "alice", []byte(`{"type":"chat_message","recipient_id":"bob","text":"hi"}`))

	if len(alice.received()) != 0 || len(bob.received()) != 0 {
		t.Fatal("nothing may be delivered when persistence fails")
	}
}

func TestSignalingSenderOverride(t *testing.T) {
	st := &fakeStore{}
	e := newTestEngine(st)

	bob := &capturePeer{}
	e.Registry().Register("bob", bob)

	// The client lies about its sender_id; the relay must overwrite it.
	e.HandleFrame(context.Background(), "alice", []byte(`{"type":"webrtc_offer","recipient_id":"bob","sender_id":"mallory","sdp":{"kind":"offer","blob":"abc"}}`))

	got := bob.received()
	if len(got) != 1 {
		t.Fatalf("expected 1 forwarded frame, got %d", len(got))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(got[0], &fields); err != nil {
		t.Fatal(err)
	}
	var sender string
	if err := json.Unmarshal(fields["sender_id"], &sender); err != nil {
		t.Fatal(err)
	}
	if sender != "alice" {
		t.Fatalf("sender_id must be the authenticated identity, got %q", sender)
	}
	// Opaque payload forwarded verbatim.
	if string(fields["sdp"]) != `{"kind":"offer","blob":"abc"}` {
		t.Fatalf("opaque payload altered: %s", fields["sdp"])
	}
	// Signaling is never persisted.
	if len(st.appended()) != 0 {
		t.Fatal("signaling frames must not be persisted")
	}
}

func TestSignalingKinds(t *testing.T) {
	for _, kind := range []string{"webrtc_offer", "webrtc_answer", "webrtc_ice_candidate", "call_ended", "call_declined"} {
		st := &fakeStore{}
		e := newTestEngine(st)
		bob := &capturePeer{}
		e.Registry().Register("bob", bob)

		e.HandleFrame(context.Background(), "alice", []byte(`{"type":"`+kind+`","recipient_id":"bob"}`))

		if len(bob.received()) != 1 {
			t.Fatalf("kind %s: expected forward", kind)
		}
	}
}

func TestIgnoredFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `not json at all`},
		{"unknown type", `{"type":"shrug","recipient_id":"bob"}`},
		{"chat missing recipient", `{"type":"chat_message","text":"hi"}`},
		{"chat missing text", `{"type":"chat_message","recipient_id":"bob"}`},
		{"chat empty text", `{"type":"chat_message","recipient_id":"bob","text":""}`},
		{"signaling missing recipient", `{"type":"webrtc_offer","sdp":"x"}`},
		{"no type", `{"recipient_id":"bob","text":"hi"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := &fakeStore{}
			e := newTestEngine(st)
			bob := &capturePeer{}
			e.Registry().Register("bob", bob)

			e.HandleFrame(context.Background(), "alice", []byte(tc.raw))

			if len(bob.received()) != 0 {
				t.Fatal("ignored frame must not be delivered")
			}
			if len(st.appended()) != 0 {
				t.Fatal("ignored frame must not be persisted")
			}
		})
	}
}
