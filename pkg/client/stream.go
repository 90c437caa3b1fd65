package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/daniacca/achemsim/internal/achem"
	"github.com/gorilla/websocket"
)

// Stream receives the events of one world over a websocket.
type Stream struct {
	conn *websocket.Conn
}

// OpenStream connects to /world/{id}/stream. Format is "json" or "msgpack";
// empty means JSON.
func OpenStream(ctx context.Context, baseURL, worldID, format string) (*Stream, error) {
	u, err := worldURL(baseURL, worldID, "stream")
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}
	if format != "" {
		parsed.RawQuery = url.Values{"format": {format}}.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, parsed.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open stream: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return &Stream{conn: conn}, nil
}

// Next blocks until the next event arrives. Binary frames are decoded as
// MessagePack, text frames as JSON.
func (s *Stream) Next() (achem.NotificationEvent, error) {
	msgType, data, err := s.conn.ReadMessage()
	if err != nil {
		return achem.NotificationEvent{}, err
	}
	if msgType == websocket.BinaryMessage {
		return achem.DecodeNotificationEventMsgpack(data)
	}
	var event achem.NotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return achem.NotificationEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return event, nil
}

// Close sends a close frame and closes the connection.
func (s *Stream) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
	return s.conn.Close()
}
