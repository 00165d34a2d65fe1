package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gorilla/websocket"

	"antsbot.ai/internal/tactic"
)

// Event is one decoded feed message. Result is set for RUN_RESULT; Passed
// and Failed for SUITE_DONE.
type Event struct {
	Type      string
	SessionID string
	Result    *tactic.Result
	Passed    int
	Failed    int
}

// Client reads a results feed.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a feed URL such as ws://127.0.0.1:8091/v1/results.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Next blocks for the next message. Unknown message types are returned with
// only Type set. A normal close by the server returns io.EOF.
func (c *Client) Next() (Event, error) {
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return Event{}, io.EOF
		}
		return Event{}, err
	}
	var env struct {
		Type            string         `json:"type"`
		ProtocolVersion string         `json:"protocol_version"`
		SessionID       string         `json:"session_id"`
		Result          *tactic.Result `json:"result"`
		Passed          int            `json:"passed"`
		Failed          int            `json:"failed"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return Event{}, fmt.Errorf("feed message: %w", err)
	}
	if env.ProtocolVersion != Version {
		return Event{}, fmt.Errorf("feed protocol %q, want %q", env.ProtocolVersion, Version)
	}
	ev := Event{Type: env.Type}
	switch env.Type {
	case TypeHello:
		ev.SessionID = env.SessionID
	case TypeRunResult:
		ev.Result = env.Result
	case TypeSuiteDone:
		ev.Passed, ev.Failed = env.Passed, env.Failed
	}
	return ev, nil
}
