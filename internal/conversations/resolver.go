package conversations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botgatehq/botgate/internal/channels"
	"github.com/botgatehq/botgate/internal/platform"
)

// ErrOwnerUnresolved is returned when a conversation would have to be
// created but no owner could be determined. Messages are never
// persisted into a conversation with a guessed owner.
var ErrOwnerUnresolved = errors.New("conversation owner could not be resolved")

// TokenOwnerLookup resolves a channel from its bot token. Satisfied
// by the channels service.
type TokenOwnerLookup interface {
	FindByToken(ctx context.Context, token string) (channels.Channel, error)
}

// ResolveInput carries the owner hints available when a message
// arrives.
type ResolveInput struct {
	// Owner is the explicit owning user id, set on authenticated
	// paths. Ignored when the conversation already exists.
	Owner string
	// ChannelToken is the bot token webhook traffic arrived on, used
	// to derive the owner when Owner is empty.
	ChannelToken string
	Message      platform.InboundMessage
}

// Resolver maps inbound messages to conversations, creating them on
// first contact.
type Resolver struct {
	logger   *slog.Logger
	store    Store
	channels TokenOwnerLookup
}

// NewResolver creates a Resolver.
func NewResolver(log *slog.Logger, store Store, channels TokenOwnerLookup) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		logger:   log.With(slog.String("service", "conversations")),
		store:    store,
		channels: channels,
	}
}

// Resolve returns the conversation the message belongs to. An
// existing conversation always wins regardless of owner hints; a new
// one requires an owner from the input or from the channel token.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (Conversation, error) {
	identity := in.Message.Identity()
	conv, err := r.store.FindByIdentity(ctx, identity)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return Conversation{}, fmt.Errorf("find conversation: %w", err)
	}

	owner := in.Owner
	if owner == "" && in.ChannelToken != "" {
		ch, err := r.channels.FindByToken(ctx, in.ChannelToken)
		if err != nil {
			if !errors.Is(err, channels.ErrChannelNotFound) {
				return Conversation{}, fmt.Errorf("find channel by token: %w", err)
			}
		} else {
			owner = ch.UserID
		}
	}
	if owner == "" {
		return Conversation{}, ErrOwnerUnresolved
	}

	msg := in.Message
	conv, err = r.store.CreateOrGet(ctx, Conversation{
		UserID:         owner,
		Platform:       msg.Platform,
		BotUsername:    msg.BotUsername,
		BotDisplayName: msg.BotDisplayName,
		ChatID:         msg.ChatID,
		ChatFirstName:  msg.ChatFirstName,
		ChatLastName:   msg.ChatLastName,
	})
	if err != nil {
		return Conversation{}, err
	}
	r.logger.Info("conversation created",
		slog.String("conversation_id", conv.ID),
		slog.String("user_id", conv.UserID),
		slog.String("platform", string(conv.Platform)),
		slog.String("bot_username", conv.BotUsername),
	)
	return conv, nil
}

// Get returns one of the user's conversations.
func (r *Resolver) Get(ctx context.Context, userID, conversationID string) (Conversation, error) {
	conv, err := r.store.Get(ctx, conversationID)
	if err != nil {
		return Conversation{}, err
	}
	if conv.UserID != userID {
		return Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}
