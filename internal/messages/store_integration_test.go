package messages_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botgatehq/botgate/internal/conversations"
	"github.com/botgatehq/botgate/internal/messages"
	"github.com/botgatehq/botgate/internal/platform"
)

func setupMessageStore(t *testing.T) (*messages.PgStore, conversations.Conversation, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}
	t.Cleanup(pool.Close)

	conv, err := conversations.NewPgStore(pool).CreateOrGet(ctx, conversations.Conversation{
		UserID:      uuid.NewString(),
		Platform:    platform.TypeTelegram,
		BotUsername: "bot-" + uuid.NewString(),
		ChatID:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	t.Cleanup(func() {
		// Message rows cascade with the conversation.
		_, _ = pool.Exec(context.Background(), "DELETE FROM conversations WHERE id = $1", conv.ID)
	})

	return messages.NewPgStore(pool), conv, pool
}

func TestInsertDuplicateExternalIDReturnsExistingRow(t *testing.T) {
	store, conv, pool := setupMessageStore(t)
	ctx := context.Background()

	externalID := uuid.NewString()
	sentAt := time.Now().UTC().Truncate(time.Second)

	first, created, err := store.Insert(ctx, messages.Message{
		ConversationID:    conv.ID,
		ExternalMessageID: externalID,
		SentAt:            sentAt,
		Text:              "original",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !created {
		t.Fatal("first insert reported created=false")
	}

	second, created, err := store.Insert(ctx, messages.Message{
		ConversationID:    conv.ID,
		ExternalMessageID: externalID,
		SentAt:            sentAt.Add(time.Minute),
		Text:              "redelivered",
	})
	if err != nil {
		t.Fatalf("Insert duplicate: %v", err)
	}
	if created {
		t.Fatal("duplicate insert reported created=true")
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate produced row %s, want %s", second.ID, first.ID)
	}
	if second.Text != "original" {
		t.Fatalf("text = %q, want the first delivery kept", second.Text)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM messages WHERE conversation_id = $1 AND external_message_id = $2",
		conv.ID, externalID,
	).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 1 {
		t.Fatalf("message rows = %d, want 1", count)
	}
}

func TestInsertConcurrentDuplicatesCollapseToOneRow(t *testing.T) {
	store, conv, pool := setupMessageStore(t)
	ctx := context.Background()

	externalID := uuid.NewString()
	sentAt := time.Now().UTC().Truncate(time.Second)

	const workers = 8
	ids := make([]string, workers)
	createdFlags := make([]bool, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, created, err := store.Insert(ctx, messages.Message{
				ConversationID:    conv.ID,
				ExternalMessageID: externalID,
				SentAt:            sentAt,
				Text:              "race",
			})
			ids[i], createdFlags[i], errs[i] = m.ID, created, err
		}(i)
	}
	wg.Wait()

	creates := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got row %s, worker 0 got %s", i, ids[i], ids[0])
		}
		if createdFlags[i] {
			creates++
		}
	}
	if creates != 1 {
		t.Fatalf("created=true reported %d times, want 1", creates)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM messages WHERE conversation_id = $1 AND external_message_id = $2",
		conv.ID, externalID,
	).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 1 {
		t.Fatalf("message rows = %d, want 1", count)
	}
}
