// Package observer broadcasts observed-variable change notifications
// (spec.md §6's observedVariables) to connected watchers over a
// websocket, the transport SPEC_FULL.md §B.2 supplies since spec.md
// names the feature but leaves its wire form unspecified. Optional and
// additive: a runner with a nil Notifier runs exactly as it would
// without this package.
//
// Grounded on the teacher's internal/network.NetworkModule websocket
// server half (websocket_server.go): a registry of connections behind a
// mutex, a broadcast loop that writes to every live client and drops any
// that error. Rebuilt from scratch for this module's purpose (the
// teacher file itself lives only under _examples/, read-only) — JSON
// change events instead of raw text messages, Upgrade/Close lifecycle
// instead of a server-ID-keyed multi-server registry.
package observer

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jbse-go/symbex/internal/value"
)

// Event is the JSON payload pushed to every connected watcher on an
// observed-variable change.
type Event struct {
	Class    string `json:"class"`
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// Broadcaster accepts websocket connections on its Handler and pushes an
// Event to all of them whenever Notify is called. It satisfies
// runner.Notifier without importing internal/runner: Notify's signature
// matches structurally.
type Broadcaster struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
	nextID  int
}

// New builds an idle Broadcaster; logger may be nil (defaults to
// log.Default()).
func New(logger *log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.Default()
	}
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
	}
}

// Handler upgrades incoming HTTP requests to websocket connections and
// registers them as watchers; mount it under whatever path cmd/symbex
// wires (e.g. "/observe").
func (b *Broadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Printf("observer: upgrade failed: %v", err)
		return
	}

	b.mu.Lock()
	b.nextID++
	id := r.RemoteAddr
	if id == "" {
		id = "watcher"
	}
	id = id + "#" + strconv.Itoa(b.nextID)
	b.clients[id] = conn
	b.mu.Unlock()

	go b.drain(id, conn)
}

// drain discards whatever a watcher sends (this channel is
// notification-only) until it disconnects, then deregisters it.
func (b *Broadcaster) drain(id string, conn *websocket.Conn) {
	defer b.remove(id)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if conn, ok := b.clients[id]; ok {
		conn.Close()
		delete(b.clients, id)
	}
}

// Notify pushes a change event to every connected watcher, dropping any
// client whose write fails.
func (b *Broadcaster) Notify(class, field string, oldValue, newValue *value.Value) {
	evt := Event{Class: class, Field: field, OldValue: stringify(oldValue), NewValue: stringify(newValue)}
	payload, err := json.Marshal(evt)
	if err != nil {
		b.logger.Printf("observer: marshal event: %v", err)
		return
	}

	b.mu.RLock()
	ids := make([]string, 0, len(b.clients))
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for id, conn := range b.clients {
		ids = append(ids, id)
		conns = append(conns, conn)
	}
	b.mu.RUnlock()

	for i, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.remove(ids[i])
		}
	}
}

// Close disconnects every watcher.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, conn := range b.clients {
		conn.Close()
		delete(b.clients, id)
	}
}

func stringify(v *value.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

