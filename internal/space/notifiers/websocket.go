package notifiers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daniacca/metaspace/internal/space"
)

// WebSocketNotifier broadcasts reaction events to connected WebSocket
// clients.
type WebSocketNotifier struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	broadcast  chan space.ReactionEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewWebSocketNotifier creates a new WebSocket notifier
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	notifier := &WebSocketNotifier{
		id:         id,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan space.ReactionEvent, 256),
		register:   make(chan *websocket.Conn),
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

// RegisterClient registers a new WebSocket client connection
func (wsn *WebSocketNotifier) RegisterClient(conn *websocket.Conn) {
	select {
	case wsn.register <- conn:
	case <-wsn.done:
		// Notifier is closing, ignore
	}
}

// UnregisterClient unregisters a WebSocket client connection
func (wsn *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case wsn.unregister <- conn:
	case <-wsn.done:
		// Notifier is closing, ignore
	}
}

// Notify queues the reaction event for broadcast to all connected
// clients.
func (wsn *WebSocketNotifier) Notify(ctx context.Context, event space.ReactionEvent) error {
	select {
	case wsn.broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		return fmt.Errorf("broadcast queue full")
	}
}

// run handles client registration/unregistration and event broadcasting
func (wsn *WebSocketNotifier) run() {
	defer wsn.wg.Done()
	for {
		select {
		case <-wsn.done:
			return

		case conn := <-wsn.register:
			if conn == nil {
				continue
			}
			wsn.mu.Lock()
			wsn.clients[conn] = true
			wsn.mu.Unlock()

		case conn := <-wsn.unregister:
			if conn == nil {
				continue
			}
			wsn.mu.Lock()
			if _, ok := wsn.clients[conn]; ok {
				delete(wsn.clients, conn)
				conn.Close()
			}
			wsn.mu.Unlock()

		case event, ok := <-wsn.broadcast:
			if !ok {
				return
			}
			wsn.broadcastEvent(event)
		}
	}
}

// broadcastEvent writes one event to every connected client, dropping
// connections that fail.
func (wsn *WebSocketNotifier) broadcastEvent(event space.ReactionEvent) {
	jsonData, err := event.JSON()
	if err != nil {
		return
	}

	wsn.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(wsn.clients))
	for conn := range wsn.clients {
		conns = append(conns, conn)
	}
	wsn.mu.RUnlock()

	var toRemove []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			toRemove = append(toRemove, conn)
			conn.Close()
		}
	}

	if len(toRemove) > 0 {
		wsn.mu.Lock()
		for _, conn := range toRemove {
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	}
}

// Close closes all WebSocket connections and stops the goroutine
func (wsn *WebSocketNotifier) Close() error {
	close(wsn.done)

	wsn.mu.Lock()
	for conn := range wsn.clients {
		conn.Close()
		delete(wsn.clients, conn)
	}
	wsn.mu.Unlock()

	wsn.wg.Wait()
	return nil
}

// Upgrader returns the WebSocket upgrader for HTTP handlers
func (wsn *WebSocketNotifier) Upgrader() websocket.Upgrader {
	return wsn.upgrader
}
