package platform_test

import (
	"errors"
	"testing"

	"github.com/botgatehq/botgate/internal/platform"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    platform.Type
		wantErr bool
	}{
		{name: "exact", input: "telegram", want: platform.TypeTelegram},
		{name: "mixed case", input: "Discord", want: platform.TypeDiscord},
		{name: "surrounding space", input: "  viber ", want: platform.TypeViber},
		{name: "unknown", input: "irc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := platform.ParseType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseType(%q) expected error", tt.input)
				}
				var verr *platform.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("ParseType(%q) error = %v, want ValidationError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseType(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInboundMessageValidate(t *testing.T) {
	t.Parallel()

	valid := platform.InboundMessage{
		Platform:    platform.TypeTelegram,
		BotUsername: "support_bot",
		ChatID:      "8841",
		MessageID:   "17",
	}

	tests := []struct {
		name      string
		mutate    func(m *platform.InboundMessage)
		wantField string
	}{
		{name: "valid", mutate: func(m *platform.InboundMessage) {}},
		{name: "text optional", mutate: func(m *platform.InboundMessage) { m.Text = "" }},
		{name: "missing platform", mutate: func(m *platform.InboundMessage) { m.Platform = "" }, wantField: "platform"},
		{name: "unknown platform", mutate: func(m *platform.InboundMessage) { m.Platform = "irc" }, wantField: "platform"},
		{name: "missing bot username", mutate: func(m *platform.InboundMessage) { m.BotUsername = "" }, wantField: "bot_username"},
		{name: "missing chat id", mutate: func(m *platform.InboundMessage) { m.ChatID = "" }, wantField: "chat_id"},
		{name: "missing message id", mutate: func(m *platform.InboundMessage) { m.MessageID = "" }, wantField: "message_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := valid
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var verr *platform.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Fatalf("Validate field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	var err error = &platform.DeliveryError{Platform: platform.TypeTelegram, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("DeliveryError should unwrap to its cause")
	}

	err = &platform.RejectedError{Platform: platform.TypeDiscord, Code: 403, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("RejectedError should unwrap to its cause")
	}
}
