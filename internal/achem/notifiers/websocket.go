package notifiers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/achemsim/internal/achem"
	"github.com/gorilla/websocket"
)

// Format selects how events are framed on a websocket.
type Format string

const (
	// FormatJSON sends text frames holding JSON.
	FormatJSON Format = "json"

	// FormatMsgpack sends binary frames holding MessagePack.
	FormatMsgpack Format = "msgpack"
)

// ParseFormat maps a query value to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown stream format %q", s)
	}
}

// Subscription filters and frames the events a client receives.
type Subscription struct {
	// WorldID restricts the stream to one world. Empty receives every world.
	WorldID achem.WorldID
	Format  Format
}

func (s Subscription) matches(event achem.NotificationEvent) bool {
	return s.WorldID == "" || s.WorldID == event.WorldID
}

type registration struct {
	conn *websocket.Conn
	sub  Subscription
}

const writeTimeout = 10 * time.Second

// WebSocketNotifier broadcasts events to connected websocket clients.
// A single goroutine owns the client set and performs every write.
type WebSocketNotifier struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]Subscription
	upgrader   websocket.Upgrader
	broadcast  chan achem.NotificationEvent
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewWebSocketNotifier creates a new WebSocket notifier
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	notifier := &WebSocketNotifier{
		id:         id,
		clients:    make(map[*websocket.Conn]Subscription),
		broadcast:  make(chan achem.NotificationEvent, 256),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	notifier.wg.Add(1)
	go notifier.run()

	return notifier
}

// ID returns the notifier ID
func (wsn *WebSocketNotifier) ID() string {
	return wsn.id
}

// Type returns the notifier type
func (wsn *WebSocketNotifier) Type() string {
	return "websocket"
}

// ClientCount returns the number of connected clients.
func (wsn *WebSocketNotifier) ClientCount() int {
	wsn.mu.RLock()
	defer wsn.mu.RUnlock()
	return len(wsn.clients)
}

// RegisterClient adds a connection with its subscription.
func (wsn *WebSocketNotifier) RegisterClient(conn *websocket.Conn, sub Subscription) {
	if sub.Format == "" {
		sub.Format = FormatJSON
	}
	select {
	case wsn.register <- registration{conn: conn, sub: sub}:
	case <-wsn.done:
		conn.Close()
	}
}

// UnregisterClient removes and closes a connection.
func (wsn *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case wsn.unregister <- conn:
	case <-wsn.done:
	}
}

// Serve upgrades the request, registers the connection and blocks until the
// client goes away. Incoming messages are discarded.
func (wsn *WebSocketNotifier) Serve(w http.ResponseWriter, r *http.Request, sub Subscription) error {
	conn, err := wsn.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	wsn.RegisterClient(conn, sub)
	defer wsn.UnregisterClient(conn)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return nil
		}
	}
}

// Notify queues the event for broadcast.
func (wsn *WebSocketNotifier) Notify(ctx context.Context, event achem.NotificationEvent) error {
	select {
	case wsn.broadcast <- event:
		return nil
	case <-wsn.done:
		return fmt.Errorf("websocket notifier %s is closed", wsn.id)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		return fmt.Errorf("notification queue full")
	}
}

func (wsn *WebSocketNotifier) run() {
	defer wsn.wg.Done()
	for {
		select {
		case <-wsn.done:
			return

		case reg := <-wsn.register:
			if reg.conn == nil {
				continue
			}
			wsn.mu.Lock()
			wsn.clients[reg.conn] = reg.sub
			wsn.mu.Unlock()

		case conn := <-wsn.unregister:
			wsn.drop(conn)

		case event := <-wsn.broadcast:
			wsn.send(event)
		}
	}
}

func (wsn *WebSocketNotifier) drop(conn *websocket.Conn) {
	if conn == nil {
		return
	}
	wsn.mu.Lock()
	_, ok := wsn.clients[conn]
	delete(wsn.clients, conn)
	wsn.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// send encodes the event at most once per format and writes it to every
// matching client. Clients that fail a write are dropped.
func (wsn *WebSocketNotifier) send(event achem.NotificationEvent) {
	wsn.mu.RLock()
	targets := make(map[*websocket.Conn]Subscription, len(wsn.clients))
	for conn, sub := range wsn.clients {
		if sub.matches(event) {
			targets[conn] = sub
		}
	}
	wsn.mu.RUnlock()

	frames := make(map[Format][]byte, 2)
	for conn, sub := range targets {
		data, ok := frames[sub.Format]
		if !ok {
			var err error
			data, err = encode(event, sub.Format)
			if err != nil {
				continue
			}
			frames[sub.Format] = data
		}

		msgType := websocket.TextMessage
		if sub.Format == FormatMsgpack {
			msgType = websocket.BinaryMessage
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(msgType, data); err != nil {
			wsn.drop(conn)
		}
	}
}

func encode(event achem.NotificationEvent, format Format) ([]byte, error) {
	if format == FormatMsgpack {
		return event.MsgPack()
	}
	return event.JSON()
}

// Close disconnects every client and stops the broadcaster.
func (wsn *WebSocketNotifier) Close() error {
	wsn.closeOnce.Do(func() {
		close(wsn.done)
		wsn.wg.Wait()

		wsn.mu.Lock()
		for conn := range wsn.clients {
			conn.Close()
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	})
	return nil
}

// GetUpgrader returns the WebSocket upgrader for HTTP handlers
func (wsn *WebSocketNotifier) GetUpgrader() websocket.Upgrader {
	return wsn.upgrader
}
