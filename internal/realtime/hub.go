// internal/realtime/hub.go

package realtime

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"
)

// Hub keeps one live connection per user and fans events out to them
type Hub struct {
    clients    map[int64]*Client
    clientsMux sync.RWMutex

    register   chan *Client
    unregister chan *Client
    deliver    chan delivery

    ctx    context.Context
    cancel context.CancelFunc
    done   chan struct{}
}

type delivery struct {
    userID int64
    data   []byte
}

// NewHub creates a hub; call Run in its own goroutine
func NewHub() *Hub {
    ctx, cancel := context.WithCancel(context.Background())

    return &Hub{
        clients:    make(map[int64]*Client),
        register:   make(chan *Client),
        unregister: make(chan *Client),
        deliver:    make(chan delivery, 256),
        ctx:        ctx,
        cancel:     cancel,
        done:       make(chan struct{}),
    }
}

func (h *Hub) Run() {
    defer close(h.done)
    defer h.cleanup()

    for {
        select {
        case client := <-h.register:
            h.registerClient(client)

        case client := <-h.unregister:
            h.unregisterClient(client)

        case d := <-h.deliver:
            h.deliverTo(d)

        case <-h.ctx.Done():
            return
        }
    }
}

func (h *Hub) registerClient(client *Client) {
    h.clientsMux.Lock()
    defer h.clientsMux.Unlock()

    // A new connection replaces the user's previous one
    if old, exists := h.clients[client.userID]; exists {
        old.close()
    }
    h.clients[client.userID] = client

    log.Printf("User %d connected. Total clients: %d", client.userID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
    h.clientsMux.Lock()
    defer h.clientsMux.Unlock()

    if current, exists := h.clients[client.userID]; exists && current == client {
        delete(h.clients, client.userID)
        log.Printf("User %d disconnected. Total clients: %d", client.userID, len(h.clients))
    }
    client.close()
}

func (h *Hub) deliverTo(d delivery) {
    h.clientsMux.RLock()
    client, exists := h.clients[d.userID]
    h.clientsMux.RUnlock()
    if !exists {
        return
    }

    select {
    case client.send <- d.data:
    default:
        // Slow consumer
        h.unregisterClient(client)
    }
}

// Publish queues an event for userID. Offline users miss it.
func (h *Hub) Publish(userID int64, eventType string, data interface{}) {
    payload, err := json.Marshal(Event{
        Type:      eventType,
        Data:      mustMarshalJSON(data),
        Timestamp: time.Now().UTC(),
    })
    if err != nil {
        log.Printf("Error marshalling event: %v", err)
        return
    }

    select {
    case h.deliver <- delivery{userID: userID, data: payload}:
    case <-h.ctx.Done():
    default:
        log.Printf("Realtime queue full, dropping %s for user %d", eventType, userID)
    }
}

func (h *Hub) IsUserOnline(userID int64) bool {
    h.clientsMux.RLock()
    defer h.clientsMux.RUnlock()

    _, exists := h.clients[userID]
    return exists
}

func (h *Hub) GetActiveConnections() int {
    h.clientsMux.RLock()
    defer h.clientsMux.RUnlock()
    return len(h.clients)
}

func (h *Hub) cleanup() {
    h.clientsMux.Lock()
    for _, client := range h.clients {
        client.close()
    }
    h.clients = make(map[int64]*Client)
    h.clientsMux.Unlock()
}

// Shutdown stops Run and closes every connection
func (h *Hub) Shutdown() {
    h.cancel()
    <-h.done
}
