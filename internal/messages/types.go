package messages

import (
	"strings"
	"time"

	"github.com/botgatehq/botgate/internal/platform"
)

// Message is one persisted chat message inside a conversation.
type Message struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	ExternalMessageID string    `json:"external_message_id"`
	SentAt            time.Time `json:"sent_at"`
	Text              string    `json:"text,omitempty"`
	// ReplyToMessageID is the internal id of the quoted message,
	// empty when the message is not a reply or the quoted message was
	// never ingested.
	ReplyToMessageID    string    `json:"reply_to_message_id,omitempty"`
	Delivered           bool      `json:"delivered"`
	Seen                bool      `json:"seen"`
	DeletedFromSender   bool      `json:"deleted_from_sender"`
	DeletedFromReceiver bool      `json:"deleted_from_receiver"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Status is a message lifecycle transition requested by a client.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
	StatusDeleted   Status = "deleted"
)

// ParseStatus normalizes a user-supplied status name.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDelivered:
		return StatusDelivered, nil
	case StatusSeen:
		return StatusSeen, nil
	case StatusDeleted:
		return StatusDeleted, nil
	default:
		return "", &platform.ValidationError{Field: "status", Reason: "must be delivered, seen or deleted"}
	}
}

// IngestRequest carries one canonical message plus the owner hints
// needed if its conversation does not exist yet.
type IngestRequest struct {
	// Owner is the explicit owning user id, set on authenticated
	// paths.
	Owner string
	// ChannelToken is the bot token webhook traffic arrived on.
	ChannelToken string
	Message      platform.InboundMessage
}
