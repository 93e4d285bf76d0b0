package conversations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botgatehq/botgate/internal/db"
	"github.com/botgatehq/botgate/internal/platform"
)

// ErrConversationNotFound is returned when no conversation matches
// the lookup.
var ErrConversationNotFound = errors.New("conversation not found")

// Store persists conversations.
type Store interface {
	Get(ctx context.Context, id string) (Conversation, error)
	FindByIdentity(ctx context.Context, identity platform.Identity) (Conversation, error)
	CreateOrGet(ctx context.Context, conv Conversation) (Conversation, error)
}

// PgStore is the postgres-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore on the given pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const conversationColumns = `id, user_id, platform, bot_username, bot_display_name, chat_id, chat_first_name, chat_last_name, created_at, updated_at`

func (s *PgStore) Get(ctx context.Context, id string) (Conversation, error) {
	convID, err := db.ParseUUID(id)
	if err != nil {
		return Conversation{}, ErrConversationNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1`,
		convID,
	)
	return scanConversation(row)
}

func (s *PgStore) FindByIdentity(ctx context.Context, identity platform.Identity) (Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE bot_username = $1 AND chat_id = $2`,
		identity.BotUsername, identity.ChatID,
	)
	return scanConversation(row)
}

// CreateOrGet inserts the conversation, or returns the existing row
// when a concurrent ingest already created one for the same identity.
// The unique constraint decides the winner, not a prior lookup.
func (s *PgStore) CreateOrGet(ctx context.Context, conv Conversation) (Conversation, error) {
	userID, err := db.ParseUUID(conv.UserID)
	if err != nil {
		return Conversation{}, fmt.Errorf("parse user id: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, user_id, platform, bot_username, bot_display_name, chat_id, chat_first_name, chat_last_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT conversations_identity_key DO NOTHING
		RETURNING `+conversationColumns,
		db.NewUUID(), userID, string(conv.Platform), conv.BotUsername,
		db.ToPgText(conv.BotDisplayName), conv.ChatID,
		db.ToPgText(conv.ChatFirstName), db.ToPgText(conv.ChatLastName),
	)
	created, err := scanConversation(row)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	// Lost the race: fetch the winner.
	return s.FindByIdentity(ctx, conv.Identity())
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var (
		id          pgtype.UUID
		userID      pgtype.UUID
		plat        string
		displayName pgtype.Text
		firstName   pgtype.Text
		lastName    pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		conv        Conversation
	)
	err := row.Scan(&id, &userID, &plat, &conv.BotUsername, &displayName,
		&conv.ChatID, &firstName, &lastName, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, ErrConversationNotFound
		}
		return Conversation{}, err
	}
	conv.ID = db.UUIDString(id)
	conv.UserID = db.UUIDString(userID)
	conv.Platform = platform.Type(plat)
	conv.BotDisplayName = db.TextToString(displayName)
	conv.ChatFirstName = db.TextToString(firstName)
	conv.ChatLastName = db.TextToString(lastName)
	conv.CreatedAt = db.TimeFromPg(createdAt)
	conv.UpdatedAt = db.TimeFromPg(updatedAt)
	return conv, nil
}
