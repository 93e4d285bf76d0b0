package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/botgatehq/botgate/internal/channels"
	"github.com/botgatehq/botgate/internal/messages"
	"github.com/botgatehq/botgate/internal/platform"
)

// DefaultTimeout bounds one delivery attempt when no timeout is
// configured.
const DefaultTimeout = 15 * time.Second

// ErrNoChannelConfigured is returned when the user has no active
// channel for the requested platform.
var ErrNoChannelConfigured = errors.New("no active channel configured for platform")

// ChannelFinder selects the channel to send through. Satisfied by the
// channels service.
type ChannelFinder interface {
	FindActive(ctx context.Context, userID string, p platform.Type) (channels.Channel, error)
}

// Ingestor records delivered messages. Satisfied by the messages
// ingestor.
type Ingestor interface {
	Ingest(ctx context.Context, req messages.IngestRequest) (messages.Message, error)
}

// Dispatcher sends outbound messages through the owning user's active
// channel and records the platform echo.
type Dispatcher struct {
	logger   *slog.Logger
	registry *platform.Registry
	channels ChannelFinder
	ingestor Ingestor
	timeout  time.Duration
}

// NewDispatcher creates a Dispatcher. A non-positive timeout falls
// back to DefaultTimeout.
func NewDispatcher(log *slog.Logger, registry *platform.Registry, channels ChannelFinder, ingestor Ingestor, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		logger:   log.With(slog.String("service", "dispatch")),
		registry: registry,
		channels: channels,
		ingestor: ingestor,
		timeout:  timeout,
	}
}

// Send delivers text to a chat on the given platform as the user's
// bot, then persists the delivered message the same way an inbound
// webhook would be. One attempt per call; retry policy belongs to the
// caller.
func (d *Dispatcher) Send(ctx context.Context, userID string, p platform.Type, chatID, text string) (messages.Message, error) {
	if chatID == "" {
		return messages.Message{}, &platform.ValidationError{Field: "chat_id", Reason: "required"}
	}
	if text == "" {
		return messages.Message{}, &platform.ValidationError{Field: "text", Reason: "required"}
	}

	ch, err := d.channels.FindActive(ctx, userID, p)
	if err != nil {
		if errors.Is(err, channels.ErrChannelNotFound) {
			return messages.Message{}, ErrNoChannelConfigured
		}
		return messages.Message{}, fmt.Errorf("find channel: %w", err)
	}

	adapter, ok := d.registry.Get(p)
	if !ok {
		return messages.Message{}, &platform.ValidationError{Field: "platform", Reason: "no adapter for " + string(p)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	echo, err := adapter.SendOutbound(sendCtx, ch.Credentials(), platform.OutboundMessage{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		d.logger.Warn("delivery failed",
			slog.String("user_id", userID),
			slog.String("platform", string(p)),
			slog.String("channel_id", ch.ID),
			slog.Any("error", err),
		)
		return messages.Message{}, classify(p, err)
	}

	stored, err := d.ingestor.Ingest(ctx, messages.IngestRequest{
		Owner:        ch.UserID,
		ChannelToken: ch.Token,
		Message:      echo,
	})
	if err != nil {
		// Delivered but not recorded; surface the persistence
		// failure, the platform side already happened.
		return messages.Message{}, fmt.Errorf("record delivered message: %w", err)
	}
	d.logger.Info("message dispatched",
		slog.String("message_id", stored.ID),
		slog.String("platform", string(p)),
		slog.String("chat_id", chatID),
	)
	return stored, nil
}

// classify keeps adapter-classified failures intact and wraps
// anything else as a delivery failure.
func classify(p platform.Type, err error) error {
	var delivery *platform.DeliveryError
	var rejected *platform.RejectedError
	var validation *platform.ValidationError
	if errors.As(err, &delivery) || errors.As(err, &rejected) || errors.As(err, &validation) {
		return err
	}
	return &platform.DeliveryError{Platform: p, Err: err}
}
