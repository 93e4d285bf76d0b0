package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/botgatehq/botgate/internal/platform"
)

// apiClientTimeout caps a single Bot API round trip. The library's
// default client has no timeout, which would let a stalled platform
// connection hang a send forever.
const apiClientTimeout = 30 * time.Second

// Adapter implements platform.Adapter for Telegram bot webhooks.
type Adapter struct {
	logger *slog.Logger
	mu     sync.RWMutex
	bots   map[string]*tgbotapi.BotAPI // keyed by bot token
}

// NewAdapter creates a Telegram adapter with the given logger.
func NewAdapter(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "telegram")),
		bots:   make(map[string]*tgbotapi.BotAPI),
	}
}

// Type returns the Telegram platform type.
func (a *Adapter) Type() platform.Type {
	return platform.TypeTelegram
}

// ParseInbound converts a Telegram update payload into a canonical message.
func (a *Adapter) ParseInbound(payload []byte) (platform.InboundMessage, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		return platform.InboundMessage{}, &platform.ValidationError{
			Field:  "payload",
			Reason: "not a telegram update: " + err.Error(),
		}
	}
	// Telegram posts edits, channel updates and callback queries to the
	// same webhook. Only new messages are ingested.
	if update.Message == nil {
		return platform.InboundMessage{}, platform.ErrIgnorablePayload
	}
	msg := update.Message
	if msg.From == nil || msg.Chat == nil {
		return platform.InboundMessage{}, platform.ErrIgnorablePayload
	}
	return fromTelegramMessage(msg), nil
}

// SendOutbound delivers a text message and returns the canonical form
// of the message Telegram echoed back.
func (a *Adapter) SendOutbound(ctx context.Context, creds platform.Credentials, msg platform.OutboundMessage) (platform.InboundMessage, error) {
	bot, err := a.getOrCreateBot(creds.Token)
	if err != nil {
		return platform.InboundMessage{}, a.classify(err)
	}
	sent, err := a.sendText(ctx, bot, msg.ChatID, msg.Text)
	if err != nil {
		a.logger.Error("send failed", slog.String("chat_id", msg.ChatID), slog.Any("error", err))
		return platform.InboundMessage{}, a.classify(err)
	}
	echo := fromTelegramMessage(&sent)
	// Telegram reports the bot as sender of its own message, but
	// omits optional fields on the echo for some chat types. Fill
	// from what we already know.
	if echo.BotUsername == "" {
		echo.BotUsername = bot.Self.UserName
	}
	if echo.ChatID == "" {
		echo.ChatID = msg.ChatID
	}
	return echo, nil
}

var newBotForTest func(token string) (*tgbotapi.BotAPI, error)

func (a *Adapter) getOrCreateBot(token string) (*tgbotapi.BotAPI, error) {
	a.mu.RLock()
	bot, ok := a.bots[token]
	a.mu.RUnlock()
	if ok {
		return bot, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if bot, ok := a.bots[token]; ok {
		return bot, nil
	}
	newBot := newBotForTest
	if newBot == nil {
		newBot = func(token string) (*tgbotapi.BotAPI, error) {
			return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint,
				&http.Client{Timeout: apiClientTimeout})
		}
	}
	bot, err := newBot(token)
	if err != nil {
		a.logger.Error("create bot failed", slog.Any("error", err))
		return nil, err
	}
	a.bots[token] = bot
	return bot, nil
}

func (a *Adapter) sendText(ctx context.Context, bot *tgbotapi.BotAPI, target, text string) (tgbotapi.Message, error) {
	var cfg tgbotapi.MessageConfig
	if strings.HasPrefix(target, "@") {
		cfg = tgbotapi.NewMessageToChannel(target, text)
	} else {
		chatID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return tgbotapi.Message{}, &platform.ValidationError{
				Field:  "chat_id",
				Reason: "telegram target must be @username or chat_id",
			}
		}
		cfg = tgbotapi.NewMessage(chatID, text)
	}

	// bot.Send does not take a context. Wait for it under the caller's
	// deadline; when the deadline fires first, the client timeout
	// bounds how long the stray request lives on.
	type result struct {
		msg tgbotapi.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := bot.Send(cfg)
		done <- result{msg: msg, err: err}
	}()
	select {
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	case r := <-done:
		return r.msg, r.err
	}
}

// classify maps Telegram API failures onto the outbound error
// taxonomy: explicit API refusals are rejections, everything else
// (timeouts, transport errors, 5xx) is a delivery failure.
func (a *Adapter) classify(err error) error {
	var verr *platform.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 {
			return &platform.DeliveryError{Platform: platform.TypeTelegram, Err: err}
		}
		return &platform.RejectedError{Platform: platform.TypeTelegram, Code: apiErr.Code, Err: err}
	}
	return &platform.DeliveryError{Platform: platform.TypeTelegram, Err: err}
}

func fromTelegramMessage(msg *tgbotapi.Message) platform.InboundMessage {
	out := platform.InboundMessage{
		Platform:  platform.TypeTelegram,
		MessageID: strconv.Itoa(msg.MessageID),
		Text:      msg.Text,
	}
	if msg.Date > 0 {
		out.SentAt = time.Unix(int64(msg.Date), 0).UTC()
	}
	if msg.From != nil {
		out.BotUsername = strings.TrimSpace(msg.From.UserName)
		if out.BotUsername == "" {
			out.BotUsername = strconv.FormatInt(msg.From.ID, 10)
		}
		out.BotDisplayName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}
	if msg.Chat != nil {
		out.ChatID = strconv.FormatInt(msg.Chat.ID, 10)
		out.ChatFirstName = strings.TrimSpace(msg.Chat.FirstName)
		out.ChatLastName = strings.TrimSpace(msg.Chat.LastName)
	}
	if msg.ReplyToMessage != nil {
		out.ReplyToMessageID = strconv.Itoa(msg.ReplyToMessage.MessageID)
	}
	return out
}
