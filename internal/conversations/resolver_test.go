package conversations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/botgatehq/botgate/internal/channels"
	"github.com/botgatehq/botgate/internal/conversations"
	"github.com/botgatehq/botgate/internal/platform"
)

type fakeConvStore struct {
	existing    map[platform.Identity]conversations.Conversation
	createCalls int
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{existing: make(map[platform.Identity]conversations.Conversation)}
}

func (f *fakeConvStore) Get(ctx context.Context, id string) (conversations.Conversation, error) {
	for _, conv := range f.existing {
		if conv.ID == id {
			return conv, nil
		}
	}
	return conversations.Conversation{}, conversations.ErrConversationNotFound
}

func (f *fakeConvStore) FindByIdentity(ctx context.Context, identity platform.Identity) (conversations.Conversation, error) {
	conv, ok := f.existing[identity]
	if !ok {
		return conversations.Conversation{}, conversations.ErrConversationNotFound
	}
	return conv, nil
}

func (f *fakeConvStore) CreateOrGet(ctx context.Context, conv conversations.Conversation) (conversations.Conversation, error) {
	f.createCalls++
	identity := conv.Identity()
	if existing, ok := f.existing[identity]; ok {
		return existing, nil
	}
	conv.ID = "conv-1"
	f.existing[identity] = conv
	return conv, nil
}

type fakeTokenLookup struct {
	byToken map[string]channels.Channel
}

func (f *fakeTokenLookup) FindByToken(ctx context.Context, token string) (channels.Channel, error) {
	ch, ok := f.byToken[token]
	if !ok {
		return channels.Channel{}, channels.ErrChannelNotFound
	}
	return ch, nil
}

func inbound() platform.InboundMessage {
	return platform.InboundMessage{
		Platform:       platform.TypeTelegram,
		BotUsername:    "alice_m",
		BotDisplayName: "Alice Moore",
		ChatID:         "445566",
		MessageID:      "365",
		Text:           "hello",
	}
}

func TestResolveExistingConversationIgnoresOwnerHints(t *testing.T) {
	t.Parallel()

	store := newFakeConvStore()
	msg := inbound()
	store.existing[msg.Identity()] = conversations.Conversation{
		ID:          "conv-9",
		UserID:      "user-original",
		BotUsername: msg.BotUsername,
		ChatID:      msg.ChatID,
	}
	r := conversations.NewResolver(nil, store, &fakeTokenLookup{})

	conv, err := r.Resolve(context.Background(), conversations.ResolveInput{
		Owner:   "user-other",
		Message: msg,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conv.UserID != "user-original" {
		t.Fatalf("owner = %q, existing conversation must keep its owner", conv.UserID)
	}
	if store.createCalls != 0 {
		t.Fatal("existing conversation must not trigger a create")
	}
}

func TestResolveCreatesWithExplicitOwner(t *testing.T) {
	t.Parallel()

	store := newFakeConvStore()
	r := conversations.NewResolver(nil, store, &fakeTokenLookup{})

	conv, err := r.Resolve(context.Background(), conversations.ResolveInput{
		Owner:   "user-1",
		Message: inbound(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conv.UserID != "user-1" {
		t.Fatalf("owner = %q, want user-1", conv.UserID)
	}
	if conv.BotUsername != "alice_m" || conv.ChatID != "445566" {
		t.Fatalf("identity = %q/%q", conv.BotUsername, conv.ChatID)
	}
}

func TestResolveDerivesOwnerFromChannelToken(t *testing.T) {
	t.Parallel()

	store := newFakeConvStore()
	lookup := &fakeTokenLookup{byToken: map[string]channels.Channel{
		"bot-token": {ID: "ch-1", UserID: "user-7"},
	}}
	r := conversations.NewResolver(nil, store, lookup)

	conv, err := r.Resolve(context.Background(), conversations.ResolveInput{
		ChannelToken: "bot-token",
		Message:      inbound(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conv.UserID != "user-7" {
		t.Fatalf("owner = %q, want user-7", conv.UserID)
	}
}

func TestResolveFailsWithoutOwner(t *testing.T) {
	t.Parallel()

	store := newFakeConvStore()
	r := conversations.NewResolver(nil, store, &fakeTokenLookup{})

	_, err := r.Resolve(context.Background(), conversations.ResolveInput{
		ChannelToken: "unknown-token",
		Message:      inbound(),
	})
	if !errors.Is(err, conversations.ErrOwnerUnresolved) {
		t.Fatalf("error = %v, want ErrOwnerUnresolved", err)
	}
	if store.createCalls != 0 {
		t.Fatal("unresolved owner must not create a conversation")
	}
}

func TestGetChecksOwnership(t *testing.T) {
	t.Parallel()

	store := newFakeConvStore()
	msg := inbound()
	store.existing[msg.Identity()] = conversations.Conversation{ID: "conv-1", UserID: "user-1"}
	r := conversations.NewResolver(nil, store, &fakeTokenLookup{})

	if _, err := r.Get(context.Background(), "user-1", "conv-1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.Get(context.Background(), "user-2", "conv-1"); !errors.Is(err, conversations.ErrConversationNotFound) {
		t.Fatalf("foreign conversation error = %v, want ErrConversationNotFound", err)
	}
}
