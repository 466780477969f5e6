// Package mescon provides a client for the mescon chat relay.
package mescon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a mescon API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	Mobile     string
	Token      string
	HTTPClient *http.Client
}

// Session holds saved login state.
type Session struct {
	Mobile string `json:"mobile"`
	Token  string `json:"token"`
}

// NewClient creates a new mescon client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("MESCON_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".mescon")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadSession()
	return c
}

// LoadSession loads a saved login from disk.
func (c *Client) LoadSession() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "session.json"))
	if err != nil {
		return err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}

	c.Mobile = session.Mobile
	c.Token = session.Token
	return nil
}

// SaveSession saves the current login to disk.
func (c *Client) SaveSession() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	data, _ := json.MarshalIndent(Session{Mobile: c.Mobile, Token: c.Token}, "", "  ")
	return os.WriteFile(filepath.Join(c.ConfigDir, "session.json"), data, 0600)
}

// SendOTP requests a login code for the number. In development deployments the
// code appears in the server log.
func (c *Client) SendOTP(mobile string) error {
	return c.post("/auth/send-otp", map[string]string{"mobile": mobile}, nil)
}

// VerifyOTP exchanges a login code for a bearer token and saves the session.
func (c *Client) VerifyOTP(mobile, code string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.post("/auth/verify-otp", map[string]string{"mobile": mobile, "otp": code}, &resp); err != nil {
		return err
	}

	c.Mobile = mobile
	c.Token = resp.AccessToken
	return c.SaveSession()
}

// ContactView is one contact list entry.
type ContactView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Online bool   `json:"online"`
}

// ListContacts returns the logged-in user's contact list.
func (c *Client) ListContacts() ([]ContactView, error) {
	var contacts []ContactView
	if err := c.get("/api/users", &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// AddContact adds a registered number to the contact list.
func (c *Client) AddContact(number, name string) error {
	return c.post("/api/contacts", map[string]string{"number": number, "name": name}, nil)
}

// HistoryEntry is one message as seen from the logged-in user's side.
type HistoryEntry struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// History returns past messages partitioned by counterpart number.
func (c *Client) History() (map[string][]HistoryEntry, error) {
	var threads map[string][]HistoryEntry
	if err := c.get("/chat/history", &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// Profile is the logged-in user's profile.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// GetProfile returns the logged-in user's profile.
func (c *Client) GetProfile() (*Profile, error) {
	var profile Profile
	if err := c.get("/api/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Conn is a live websocket session with the relay.
type Conn struct {
	ws *websocket.Conn
}

// Connect opens the websocket using the saved token.
func (c *Client) Connect() (*Conn, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("not logged in")
	}

	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/chat/ws?token=" + url.QueryEscape(c.Token)
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("token rejected, log in again")
		}
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// SendChat sends one chat message.
func (conn *Conn) SendChat(recipient, text string) error {
	return conn.ws.WriteJSON(map[string]string{
		"type":         "chat_message",
		"recipient_id": recipient,
		"text":         text,
	})
}

// Incoming is a received relay frame. Signaling frames carry their extra
// fields in Raw.
type Incoming struct {
	Type      string `json:"type"`
	SenderID  string `json:"sender_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Raw       []byte `json:"-"`
}

// Read blocks until the next frame arrives.
func (conn *Conn) Read() (*Incoming, error) {
	_, payload, err := conn.ws.ReadMessage()
	if err != nil {
		return nil, err
	}

	var in Incoming
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, err
	}
	in.Raw = payload
	return &in, nil
}

// Close closes the websocket.
func (conn *Conn) Close() error {
	return conn.ws.Close()
}

func (c *Client) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
