// internal/realtime/events.go

package realtime

import (
    "encoding/json"
    "log"
    "time"
)

// Event types pushed to connected users
const (
    EventMessageNew        = "message.new"
    EventSuperlikeReceived = "superlike.received"
    EventTopUpCompleted    = "topup.completed"
    EventTopUpFailed       = "topup.failed"
)

// Event is the envelope written to the socket
type Event struct {
    Type      string          `json:"type"`
    Data      json.RawMessage `json:"data"`
    Timestamp time.Time       `json:"timestamp"`
}

// Publisher delivers events to a user if they are connected
type Publisher interface {
    Publish(userID int64, eventType string, data interface{})
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(int64, string, interface{}) {}

func mustMarshalJSON(v interface{}) json.RawMessage {
    data, err := json.Marshal(v)
    if err != nil {
        log.Printf("Error marshaling event: %v", err)
        return json.RawMessage(`{}`)
    }
    return json.RawMessage(data)
}
