package conversations

import (
	"time"

	"github.com/botgatehq/botgate/internal/platform"
)

// Conversation is one bot-account-to-chat pairing. Both directions of
// a chat produce their own conversation: inbound traffic is keyed by
// the human sender, outbound echoes by the bot itself.
type Conversation struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Platform       platform.Type `json:"platform"`
	BotUsername    string        `json:"bot_username"`
	BotDisplayName string        `json:"bot_display_name,omitempty"`
	ChatID         string        `json:"chat_id"`
	ChatFirstName  string        `json:"chat_first_name,omitempty"`
	ChatLastName   string        `json:"chat_last_name,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Identity returns the uniqueness key of the conversation.
func (c Conversation) Identity() platform.Identity {
	return platform.Identity{BotUsername: c.BotUsername, ChatID: c.ChatID}
}
