package channels

import (
	"time"

	"github.com/botgatehq/botgate/internal/platform"
)

// Status reports whether a channel is eligible for outbound dispatch.
type Status int

const (
	StatusInactive Status = 0
	StatusActive   Status = 1
)

// Channel is a bot credential registered by a user for one platform.
type Channel struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Platform  platform.Type `json:"platform"`
	Token     string        `json:"token"`
	Name      string        `json:"name"`
	URI       string        `json:"uri,omitempty"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Credentials returns the secrets an adapter needs to act as this
// channel's bot.
func (c Channel) Credentials() platform.Credentials {
	return platform.Credentials{Token: c.Token, URI: c.URI}
}

// RegisterRequest is the payload for registering a channel.
type RegisterRequest struct {
	Platform string `json:"platform" validate:"required"`
	Name     string `json:"name" validate:"required,min=4"`
	Token    string `json:"token" validate:"required,min=30"`
	URI      string `json:"uri" validate:"omitempty,min=4"`
}
