package platform

import (
	"strings"
	"time"
)

// Type identifies a messaging platform a channel can be bound to.
type Type string

const (
	TypeTelegram Type = "telegram"
	TypeViber    Type = "viber"
	TypeLine     Type = "line"
	TypeDiscord  Type = "discord"
	TypeSignal   Type = "signal"
	TypeWhatsApp Type = "whatsapp"
	TypeTwilio   Type = "twilio"
	TypeNexmo    Type = "nexmo"
	TypeFacebook Type = "facebook"
)

// Types returns every platform the gateway knows about, whether or not
// an adapter is registered for it.
func Types() []Type {
	return []Type{
		TypeTelegram,
		TypeViber,
		TypeLine,
		TypeDiscord,
		TypeSignal,
		TypeWhatsApp,
		TypeTwilio,
		TypeNexmo,
		TypeFacebook,
	}
}

// ParseType normalizes a user-supplied platform name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "platform", Reason: "unknown platform " + string(t)}
}

// Identity is the conversation key: the bot account a message belongs
// to and the platform chat it happened in. Inbound messages carry the
// human sender here, outbound echoes carry the bot itself; both sides
// of a chat therefore resolve to distinct conversations.
type Identity struct {
	BotUsername string
	ChatID      string
}

// InboundMessage is the canonical form every adapter parses platform
// payloads into. It is also what SendOutbound returns, so delivered
// messages flow through the same ingestion path as webhooks.
type InboundMessage struct {
	Platform       Type      `json:"platform"`
	BotUsername    string    `json:"bot_username"`
	BotDisplayName string    `json:"bot_display_name,omitempty"`
	ChatID         string    `json:"chat_id"`
	ChatFirstName  string    `json:"chat_first_name,omitempty"`
	ChatLastName   string    `json:"chat_last_name,omitempty"`
	MessageID      string    `json:"message_id"`
	SentAt         time.Time `json:"sent_at"`
	Text           string    `json:"text,omitempty"`
	// ReplyToMessageID is the platform-native id of the quoted
	// message, empty when the message is not a reply.
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
}

// Identity extracts the conversation key for the message.
func (m InboundMessage) Identity() Identity {
	return Identity{BotUsername: m.BotUsername, ChatID: m.ChatID}
}

// Validate checks the fields every downstream stage depends on. Text
// is deliberately optional: stickers, media and joins arrive with no
// text but still belong in the conversation history.
func (m InboundMessage) Validate() error {
	if m.Platform == "" {
		return &ValidationError{Field: "platform", Reason: "required"}
	}
	if _, err := ParseType(string(m.Platform)); err != nil {
		return err
	}
	if m.BotUsername == "" {
		return &ValidationError{Field: "bot_username", Reason: "required"}
	}
	if m.ChatID == "" {
		return &ValidationError{Field: "chat_id", Reason: "required"}
	}
	if m.MessageID == "" {
		return &ValidationError{Field: "message_id", Reason: "required"}
	}
	return nil
}

// OutboundMessage is a send request handed to an adapter.
type OutboundMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Credentials are the per-channel secrets an adapter needs to act on
// behalf of a bot account.
type Credentials struct {
	Token string
	URI   string
}
