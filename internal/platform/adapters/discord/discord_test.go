package discord

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/botgatehq/botgate/internal/platform"
)

const messageFixture = `{
	"id": "1143872000011",
	"channel_id": "99887766",
	"content": "ping from discord",
	"timestamp": "2026-08-28T09:15:00Z",
	"author": {"id": "5150", "username": "board_bot", "global_name": "Board Bot"}
}`

func TestParseInbound(t *testing.T) {
	a := NewAdapter(nil)

	msg, err := a.ParseInbound([]byte(messageFixture))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.Platform != platform.TypeDiscord {
		t.Fatalf("platform = %q", msg.Platform)
	}
	if msg.BotUsername != "board_bot" {
		t.Fatalf("bot username = %q", msg.BotUsername)
	}
	if msg.BotDisplayName != "Board Bot" {
		t.Fatalf("display name = %q", msg.BotDisplayName)
	}
	if msg.ChatID != "99887766" {
		t.Fatalf("chat id = %q", msg.ChatID)
	}
	if msg.MessageID != "1143872000011" {
		t.Fatalf("message id = %q", msg.MessageID)
	}
	if msg.Text != "ping from discord" {
		t.Fatalf("text = %q", msg.Text)
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("parsed message should validate: %v", err)
	}
}

func TestParseInboundReply(t *testing.T) {
	a := NewAdapter(nil)

	payload := `{
		"id": "2000",
		"channel_id": "99887766",
		"content": "sure",
		"author": {"id": "5150", "username": "board_bot"},
		"referenced_message": {"id": "1999", "channel_id": "99887766"}
	}`
	msg, err := a.ParseInbound([]byte(payload))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.ReplyToMessageID != "1999" {
		t.Fatalf("reply id = %q, want 1999", msg.ReplyToMessageID)
	}
}

func TestParseInboundIgnoresSystemPayloads(t *testing.T) {
	a := NewAdapter(nil)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "no author", payload: `{"id": "3000", "channel_id": "1", "type": 6}`},
		{name: "empty object", payload: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ParseInbound([]byte(tt.payload))
			if !errors.Is(err, platform.ErrIgnorablePayload) {
				t.Fatalf("error = %v, want ErrIgnorablePayload", err)
			}
		})
	}
}

func TestParseInboundMalformedPayload(t *testing.T) {
	a := NewAdapter(nil)

	_, err := a.ParseInbound([]byte(`[not json`))
	var verr *platform.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestClassify(t *testing.T) {
	a := NewAdapter(nil)

	restErr := func(status int) error {
		return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
	}

	var rejected *platform.RejectedError
	if got := a.classify(restErr(http.StatusForbidden)); !errors.As(got, &rejected) {
		t.Fatalf("classify(403) = %v, want RejectedError", got)
	} else if rejected.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rejected.Code)
	}

	var delivery *platform.DeliveryError
	if got := a.classify(restErr(http.StatusBadGateway)); !errors.As(got, &delivery) {
		t.Fatalf("classify(502) = %v, want DeliveryError", got)
	}
	if got := a.classify(errors.New("connection refused")); !errors.As(got, &delivery) {
		t.Fatalf("classify(transport) = %v, want DeliveryError", got)
	}
}
