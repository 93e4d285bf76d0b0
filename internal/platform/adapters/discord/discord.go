package discord

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/botgatehq/botgate/internal/platform"
)

// Adapter implements platform.Adapter for Discord bot accounts. It
// uses the REST API only; no gateway connection is opened.
type Adapter struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	sessions map[string]*discordgo.Session // keyed by bot token
}

// NewAdapter creates a Discord adapter with the given logger.
func NewAdapter(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger:   log.With(slog.String("adapter", "discord")),
		sessions: make(map[string]*discordgo.Session),
	}
}

// Type returns the Discord platform type.
func (a *Adapter) Type() platform.Type {
	return platform.TypeDiscord
}

// ParseInbound converts a Discord message-create payload into a
// canonical message.
func (a *Adapter) ParseInbound(payload []byte) (platform.InboundMessage, error) {
	var msg discordgo.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return platform.InboundMessage{}, &platform.ValidationError{
			Field:  "payload",
			Reason: "not a discord message: " + err.Error(),
		}
	}
	// System events such as pins and member joins share the message
	// shape but have no author to attribute the message to.
	if msg.ID == "" || msg.Author == nil {
		return platform.InboundMessage{}, platform.ErrIgnorablePayload
	}
	return fromDiscordMessage(&msg), nil
}

// SendOutbound delivers a text message and returns the canonical form
// of the created Discord message.
func (a *Adapter) SendOutbound(ctx context.Context, creds platform.Credentials, msg platform.OutboundMessage) (platform.InboundMessage, error) {
	session, err := a.getOrCreateSession(creds.Token)
	if err != nil {
		return platform.InboundMessage{}, a.classify(err)
	}
	sent, err := session.ChannelMessageSend(msg.ChatID, msg.Text, discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Error("send failed", slog.String("chat_id", msg.ChatID), slog.Any("error", err))
		return platform.InboundMessage{}, a.classify(err)
	}
	echo := fromDiscordMessage(sent)
	if echo.ChatID == "" {
		echo.ChatID = msg.ChatID
	}
	return echo, nil
}

func (a *Adapter) getOrCreateSession(token string) (*discordgo.Session, error) {
	a.mu.RLock()
	session, ok := a.sessions[token]
	a.mu.RUnlock()
	if ok {
		return session, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[token]; ok {
		return s, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		a.logger.Error("create session failed", slog.Any("error", err))
		return nil, err
	}
	a.sessions[token] = session
	return session, nil
}

// classify maps Discord REST failures onto the outbound error
// taxonomy. 4xx responses mean the platform understood and refused;
// everything else may succeed on retry.
func (a *Adapter) classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		if code >= http.StatusInternalServerError {
			return &platform.DeliveryError{Platform: platform.TypeDiscord, Err: err}
		}
		return &platform.RejectedError{Platform: platform.TypeDiscord, Code: code, Err: err}
	}
	return &platform.DeliveryError{Platform: platform.TypeDiscord, Err: err}
}

func fromDiscordMessage(msg *discordgo.Message) platform.InboundMessage {
	out := platform.InboundMessage{
		Platform:  platform.TypeDiscord,
		ChatID:    msg.ChannelID,
		MessageID: msg.ID,
		Text:      msg.Content,
	}
	if !msg.Timestamp.IsZero() {
		out.SentAt = msg.Timestamp.UTC()
	}
	if msg.Author != nil {
		out.BotUsername = msg.Author.Username
		out.BotDisplayName = strings.TrimSpace(msg.Author.GlobalName)
		if out.BotDisplayName == "" {
			out.BotDisplayName = msg.Author.Username
		}
	}
	if msg.ReferencedMessage != nil {
		out.ReplyToMessageID = msg.ReferencedMessage.ID
	}
	return out
}
