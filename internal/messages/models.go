// internal/messages/models.go

package messages

import "time"

// Message is a direct message between two users
type Message struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Message    string    `json:"message" db:"message"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" validate:"required,gt=0"`
	Message    string `json:"message" validate:"required,max=5000"`
}

// UpdateMessageRequest: the receiver may set is_read, the sender may edit
// message
type UpdateMessageRequest struct {
	Message *string `json:"message" validate:"omitempty,min=1,max=5000"`
	IsRead  *bool   `json:"is_read"`
}

type ListFilter struct {
	UserID   int64
	WithUser *int64
	IsRead   *bool
	Limit    int
	Offset   int
}
