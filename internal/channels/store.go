package channels

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

// ErrChannelNotFound is returned when no channel matches the lookup.
var ErrChannelNotFound = errors.New("channel not found")

// ErrTokenInUse is returned when another live channel already holds
// the token.
var ErrTokenInUse = errors.New("token already registered")

// Store persists channels.
type Store interface {
	Insert(ctx context.Context, ch Channel) (Channel, error)
	Get(ctx context.Context, id string) (Channel, error)
	FindActive(ctx context.Context, userID string, p platform.Type) (Channel, error)
	FindByToken(ctx context.Context, token string) (Channel, error)
	ListByUser(ctx context.Context, userID string) ([]Channel, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Channel, error)
	SoftDelete(ctx context.Context, id string) error
}

// PgStore is the postgres-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore on the given pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const channelColumns = `id, user_id, platform, token, name, uri, status, created_at, updated_at`

func (s *PgStore) Insert(ctx context.Context, ch Channel) (Channel, error) {
	userID, err := db.ParseUUID(ch.UserID)
	if err != nil {
		return Channel{}, fmt.Errorf("parse user id: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO channels (id, user_id, platform, token, name, uri, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+channelColumns,
		db.NewUUID(), userID, string(ch.Platform), ch.Token, ch.Name,
		db.ToPgText(ch.URI), int16(ch.Status),
	)
	inserted, err := scanChannel(row)
	if err != nil {
		if db.IsUniqueViolation(err, "channels_token_key") {
			return Channel{}, ErrTokenInUse
		}
		return Channel{}, fmt.Errorf("insert channel: %w", err)
	}
	return inserted, nil
}

func (s *PgStore) Get(ctx context.Context, id string) (Channel, error) {
	chID, err := db.ParseUUID(id)
	if err != nil {
		return Channel{}, ErrChannelNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE id = $1 AND deleted_at IS NULL`,
		chID,
	)
	return scanChannel(row)
}

// FindActive returns the newest active channel for a user on a
// platform. When several are active the most recently registered one
// wins.
func (s *PgStore) FindActive(ctx context.Context, userID string, p platform.Type) (Channel, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return Channel{}, ErrChannelNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE user_id = $1 AND platform = $2 AND status = $3 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`,
		uid, string(p), int16(StatusActive),
	)
	return scanChannel(row)
}

func (s *PgStore) FindByToken(ctx context.Context, token string) (Channel, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE token = $1 AND deleted_at IS NULL`,
		token,
	)
	return scanChannel(row)
}

func (s *PgStore) ListByUser(ctx context.Context, userID string) ([]Channel, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`,
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *PgStore) UpdateStatus(ctx context.Context, id string, status Status) (Channel, error) {
	chID, err := db.ParseUUID(id)
	if err != nil {
		return Channel{}, ErrChannelNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE channels
		SET status = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+channelColumns,
		chID, int16(status),
	)
	return scanChannel(row)
}

func (s *PgStore) SoftDelete(ctx context.Context, id string) error {
	chID, err := db.ParseUUID(id)
	if err != nil {
		return ErrChannelNotFound
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE channels
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		chID,
	)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChannelNotFound
	}
	return nil
}

func scanChannel(row pgx.Row) (Channel, error) {
	var (
		id        pgtype.UUID
		userID    pgtype.UUID
		plat      string
		uri       pgtype.Text
		status    int16
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		ch        Channel
	)
	err := row.Scan(&id, &userID, &plat, &ch.Token, &ch.Name, &uri, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrChannelNotFound
		}
		return Channel{}, err
	}
	ch.ID = db.UUIDString(id)
	ch.UserID = db.UUIDString(userID)
	ch.Platform = platform.Type(plat)
	ch.URI = db.TextToString(uri)
	ch.Status = Status(status)
	ch.CreatedAt = db.TimeFromPg(createdAt)
	ch.UpdatedAt = db.TimeFromPg(updatedAt)
	return ch, nil
}
