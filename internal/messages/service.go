// internal/messages/service.go

package messages

import (
	"context"
	"errors"
	"strings"

	"github.com/imadgeboyega/matchup-backend/internal/realtime"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrSelfMessage      = errors.New("cannot message yourself")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrNothingToUpdate  = errors.New("no fields to update")
)

// Service defines messaging operations
type Service interface {
	Send(ctx context.Context, senderID int64, req *SendMessageRequest) (*Message, error)
	Get(ctx context.Context, callerID int64, id int64) (*Message, error)
	List(ctx context.Context, filter *ListFilter) ([]*Message, int, error)
	Update(ctx context.Context, callerID int64, id int64, req *UpdateMessageRequest) (*Message, error)
	Delete(ctx context.Context, callerID int64, id int64) error
}

type service struct {
	repo      Repository
	publisher realtime.Publisher
}

// NewService creates a new messages service. New messages are pushed to
// the receiver through publisher.
func NewService(repo Repository, publisher realtime.Publisher) Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &service{repo: repo, publisher: publisher}
}

func (s *service) Send(ctx context.Context, senderID int64, req *SendMessageRequest) (*Message, error) {
	if req.ReceiverID == senderID {
		return nil, ErrSelfMessage
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	m := &Message{SenderID: senderID, ReceiverID: req.ReceiverID, Message: text}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.publisher.Publish(m.ReceiverID, realtime.EventMessageNew, m)
	return m, nil
}

func (s *service) Get(ctx context.Context, callerID int64, id int64) (*Message, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.SenderID != callerID && m.ReceiverID != callerID {
		return nil, ErrUnauthorized
	}
	return m, nil
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Message, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, callerID int64, id int64, req *UpdateMessageRequest) (*Message, error) {
	if req.Message == nil && req.IsRead == nil {
		return nil, ErrNothingToUpdate
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsRead != nil {
		if m.ReceiverID != callerID {
			return nil, ErrUnauthorized
		}
		m.IsRead = *req.IsRead
	}
	if req.Message != nil {
		if m.SenderID != callerID {
			return nil, ErrUnauthorized
		}
		text := strings.TrimSpace(*req.Message)
		if text == "" {
			return nil, ErrEmptyMessage
		}
		m.Message = text
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Delete(ctx context.Context, callerID int64, id int64) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.SenderID != callerID {
		return ErrUnauthorized
	}
	return s.repo.Delete(ctx, id)
}
