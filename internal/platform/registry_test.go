package platform_test

import (
	"context"
	"testing"

	"github.com/botgatehq/botgate/internal/platform"
)

type stubAdapter struct {
	platformType platform.Type
}

func (s *stubAdapter) Type() platform.Type { return s.platformType }

func (s *stubAdapter) ParseInbound(payload []byte) (platform.InboundMessage, error) {
	return platform.InboundMessage{}, nil
}

func (s *stubAdapter) SendOutbound(ctx context.Context, creds platform.Credentials, msg platform.OutboundMessage) (platform.InboundMessage, error) {
	return platform.InboundMessage{}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	t.Parallel()

	r := platform.NewRegistry()
	tg := &stubAdapter{platformType: platform.TypeTelegram}
	if err := r.Register(tg); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, ok := r.Get(platform.TypeTelegram)
	if !ok {
		t.Fatal("expected telegram adapter to be registered")
	}
	if got != tg {
		t.Fatal("registry returned a different adapter")
	}

	if _, ok := r.Get(platform.TypeViber); ok {
		t.Fatal("expected no viber adapter")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	r := platform.NewRegistry()
	if err := r.Register(&stubAdapter{platformType: platform.TypeDiscord}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&stubAdapter{platformType: platform.TypeDiscord}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistryRejectsUnknownPlatform(t *testing.T) {
	t.Parallel()

	r := platform.NewRegistry()
	if err := r.Register(&stubAdapter{platformType: platform.Type("irc")}); err == nil {
		t.Fatal("expected unknown platform to be rejected")
	}
	if err := r.Register(nil); err == nil {
		t.Fatal("expected nil adapter to be rejected")
	}
}

func TestRegistrySupported(t *testing.T) {
	t.Parallel()

	r := platform.NewRegistry()
	r.MustRegister(&stubAdapter{platformType: platform.TypeTelegram})
	r.MustRegister(&stubAdapter{platformType: platform.TypeDiscord})

	got := r.Supported()
	want := []platform.Type{platform.TypeDiscord, platform.TypeTelegram}
	if len(got) != len(want) {
		t.Fatalf("supported = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("supported = %v, want %v", got, want)
		}
	}
}
