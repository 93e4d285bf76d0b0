package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botgatehq/botgate/internal/db"
)

// ErrMessageNotFound is returned when no message matches the lookup.
var ErrMessageNotFound = errors.New("message not found")

// Store persists messages.
type Store interface {
	// Insert stores the message unless one with the same external id
	// already exists in the conversation. It returns the stored row
	// and whether this call created it.
	Insert(ctx context.Context, m Message) (Message, bool, error)
	FindByExternalID(ctx context.Context, conversationID, externalID string) (Message, error)
	// GetWithOwner returns the message together with the user id
	// owning its conversation.
	GetWithOwner(ctx context.Context, id string) (Message, string, error)
	MarkDelivered(ctx context.Context, id string) (Message, error)
	MarkSeen(ctx context.Context, id string) (Message, error)
	MarkDeleted(ctx context.Context, id string, fromSender bool) (Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
}

// PgStore is the postgres-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore on the given pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const messageColumns = `id, conversation_id, external_message_id, sent_at, text, reply_to_message_id, delivered, seen, deleted_from_sender, deleted_from_receiver, created_at, updated_at`

func (s *PgStore) Insert(ctx context.Context, m Message) (Message, bool, error) {
	convID, err := db.ParseUUID(m.ConversationID)
	if err != nil {
		return Message{}, false, fmt.Errorf("parse conversation id: %w", err)
	}
	var replyTo pgtype.UUID
	if m.ReplyToMessageID != "" {
		replyTo, err = db.ParseUUID(m.ReplyToMessageID)
		if err != nil {
			return Message{}, false, fmt.Errorf("parse reply id: %w", err)
		}
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, external_message_id, sent_at, text, reply_to_message_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT messages_dedup_key DO NOTHING
		RETURNING `+messageColumns,
		db.NewUUID(), convID, m.ExternalMessageID, db.ToPgTime(m.SentAt),
		db.ToPgText(m.Text), replyTo,
	)
	inserted, err := scanMessage(row)
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, ErrMessageNotFound) {
		return Message{}, false, fmt.Errorf("insert message: %w", err)
	}
	// Duplicate delivery: return the row the earlier ingest created.
	existing, err := s.FindByExternalID(ctx, m.ConversationID, m.ExternalMessageID)
	if err != nil {
		return Message{}, false, err
	}
	return existing, false, nil
}

func (s *PgStore) FindByExternalID(ctx context.Context, conversationID, externalID string) (Message, error) {
	convID, err := db.ParseUUID(conversationID)
	if err != nil {
		return Message{}, ErrMessageNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1 AND external_message_id = $2`,
		convID, externalID,
	)
	return scanMessage(row)
}

func (s *PgStore) GetWithOwner(ctx context.Context, id string) (Message, string, error) {
	msgID, err := db.ParseUUID(id)
	if err != nil {
		return Message{}, "", ErrMessageNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT m.`+joinedMessageColumns()+`, c.user_id
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.id = $1`,
		msgID,
	)
	var owner pgtype.UUID
	m, err := scanMessageWith(row, &owner)
	if err != nil {
		return Message{}, "", err
	}
	return m, db.UUIDString(owner), nil
}

func (s *PgStore) MarkDelivered(ctx context.Context, id string) (Message, error) {
	return s.update(ctx, id, `delivered = TRUE`)
}

func (s *PgStore) MarkSeen(ctx context.Context, id string) (Message, error) {
	return s.update(ctx, id, `seen = TRUE`)
}

func (s *PgStore) MarkDeleted(ctx context.Context, id string, fromSender bool) (Message, error) {
	if fromSender {
		return s.update(ctx, id, `deleted_from_sender = TRUE`)
	}
	return s.update(ctx, id, `deleted_from_receiver = TRUE`)
}

func (s *PgStore) update(ctx context.Context, id, assignment string) (Message, error) {
	msgID, err := db.ParseUUID(id)
	if err != nil {
		return Message{}, ErrMessageNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE messages
		SET `+assignment+`, updated_at = now()
		WHERE id = $1
		RETURNING `+messageColumns,
		msgID,
	)
	return scanMessage(row)
}

func (s *PgStore) ListByConversation(ctx context.Context, conversationID string) ([]Message, error) {
	convID, err := db.ParseUUID(conversationID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at, created_at`,
		convID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func joinedMessageColumns() string {
	return `id, m.conversation_id, m.external_message_id, m.sent_at, m.text, m.reply_to_message_id, m.delivered, m.seen, m.deleted_from_sender, m.deleted_from_receiver, m.created_at, m.updated_at`
}

func scanMessage(row pgx.Row) (Message, error) {
	return scanMessageWith(row)
}

func scanMessageWith(row pgx.Row, extra ...any) (Message, error) {
	var (
		id        pgtype.UUID
		convID    pgtype.UUID
		sentAt    pgtype.Timestamptz
		text      pgtype.Text
		replyTo   pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		m         Message
	)
	dest := []any{&id, &convID, &m.ExternalMessageID, &sentAt, &text, &replyTo,
		&m.Delivered, &m.Seen, &m.DeletedFromSender, &m.DeletedFromReceiver,
		&createdAt, &updatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrMessageNotFound
		}
		return Message{}, err
	}
	m.ID = db.UUIDString(id)
	m.ConversationID = db.UUIDString(convID)
	m.SentAt = db.TimeFromPg(sentAt)
	m.Text = db.TextToString(text)
	m.ReplyToMessageID = db.UUIDString(replyTo)
	m.CreatedAt = db.TimeFromPg(createdAt)
	m.UpdatedAt = db.TimeFromPg(updatedAt)
	return m, nil
}
