package messages

import (
	"context"
	"log/slog"
)

// Service owns message lifecycle after ingestion: status transitions
// and history listing.
type Service struct {
	logger *slog.Logger
	store  Store
}

// NewService creates a message Service.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger: log.With(slog.String("service", "messages")),
		store:  store,
	}
}

// UpdateStatus applies one lifecycle transition to a message the
// requester can see. Deletion is recorded per side: the conversation
// owner deletes from the sender side, anyone else from the receiver
// side, and neither hides the message for the other party.
func (s *Service) UpdateStatus(ctx context.Context, requesterID, messageID string, status Status) (Message, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return Message{}, err
	}
	_, ownerID, err := s.store.GetWithOwner(ctx, messageID)
	if err != nil {
		return Message{}, err
	}

	var updated Message
	switch status {
	case StatusDelivered:
		updated, err = s.store.MarkDelivered(ctx, messageID)
	case StatusSeen:
		updated, err = s.store.MarkSeen(ctx, messageID)
	case StatusDeleted:
		updated, err = s.store.MarkDeleted(ctx, messageID, requesterID == ownerID)
	}
	if err != nil {
		return Message{}, err
	}
	s.logger.Info("message status updated",
		slog.String("message_id", messageID),
		slog.String("status", string(status)),
	)
	return updated, nil
}

// List returns a conversation's messages in send order.
func (s *Service) List(ctx context.Context, conversationID string) ([]Message, error) {
	return s.store.ListByConversation(ctx, conversationID)
}
