package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/botgatehq/botgate/internal/conversations"
)

// ConversationResolver maps inbound messages to conversations.
// Satisfied by the conversations resolver.
type ConversationResolver interface {
	Resolve(ctx context.Context, in conversations.ResolveInput) (conversations.Conversation, error)
}

// Ingestor persists canonical messages idempotently.
type Ingestor struct {
	logger   *slog.Logger
	resolver ConversationResolver
	store    Store
	now      func() time.Time
}

// NewIngestor creates an Ingestor.
func NewIngestor(log *slog.Logger, resolver ConversationResolver, store Store) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{
		logger:   log.With(slog.String("service", "messages")),
		resolver: resolver,
		store:    store,
		now:      time.Now,
	}
}

// Ingest validates, resolves and stores one message. Delivering the
// same platform message twice returns the already stored row; the
// dedup constraint in storage decides, so concurrent duplicates
// collapse to one row as well.
func (i *Ingestor) Ingest(ctx context.Context, req IngestRequest) (Message, error) {
	msg := req.Message
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}

	conv, err := i.resolver.Resolve(ctx, conversations.ResolveInput{
		Owner:        req.Owner,
		ChannelToken: req.ChannelToken,
		Message:      msg,
	})
	if err != nil {
		return Message{}, err
	}

	// Fast path for redelivered webhooks; the insert below still
	// catches duplicates that race past this check.
	if existing, err := i.store.FindByExternalID(ctx, conv.ID, msg.MessageID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrMessageNotFound) {
		return Message{}, fmt.Errorf("find message: %w", err)
	}

	replyTo := ""
	if msg.ReplyToMessageID != "" {
		parent, err := i.store.FindByExternalID(ctx, conv.ID, msg.ReplyToMessageID)
		switch {
		case err == nil:
			replyTo = parent.ID
		case errors.Is(err, ErrMessageNotFound):
			// Quoted message was never ingested; store the message
			// without the link rather than refusing it.
		default:
			return Message{}, fmt.Errorf("find quoted message: %w", err)
		}
	}

	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = i.now().UTC()
	}

	stored, created, err := i.store.Insert(ctx, Message{
		ConversationID:    conv.ID,
		ExternalMessageID: msg.MessageID,
		SentAt:            sentAt,
		Text:              msg.Text,
		ReplyToMessageID:  replyTo,
	})
	if err != nil {
		return Message{}, err
	}
	if created {
		i.logger.Info("message ingested",
			slog.String("message_id", stored.ID),
			slog.String("conversation_id", conv.ID),
			slog.String("platform", string(msg.Platform)),
		)
	}
	return stored, nil
}
