package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

const sessionColumns = `id, chat_id, guild_id, status, created_at, started_at, ended_at, ranking, hand`

func scanSession(row pgx.Row) (*model.Session, error) {
	var (
		s             model.Session
		status        string
		ranking, hand []byte
	)
	err := row.Scan(&s.ID, &s.ChatID, &s.GuildID, &status, &s.CreatedAt, &s.StartedAt, &s.EndedAt, &ranking, &hand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	s.Status = model.Status(status)
	if err := store.DecodeDocs(&s, ranking, hand); err != nil {
		return nil, err
	}
	return &s, nil
}

// sessionState explains why a guarded write touched no rows.
func (db *DB) sessionState(ctx context.Context, id string) error {
	var status string
	err := db.pool.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if model.Status(status) != model.StatusActive {
		return store.ErrSessionClosed
	}
	return nil
}

func (db *DB) ActiveSession(ctx context.Context, chatID string) (*model.Session, error) {
	return scanSession(db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE chat_id = $1 AND status = 'active'`, chatID))
}

func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return scanSession(db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

func (db *DB) CreateSession(ctx context.Context, s *model.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	ranking, hand, err := store.EncodeDocs(s.Ranking, s.Hand)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO sessions (id, chat_id, guild_id, status, created_at, started_at, ended_at, ranking, hand)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.ChatID, s.GuildID, string(s.Status), s.CreatedAt, s.StartedAt, s.EndedAt, ranking, hand,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_sessions_one_active" {
			return store.ErrActiveExists
		}
		return err
	}
	return nil
}

func (db *DB) EndSession(ctx context.Context, id string, at time.Time) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE sessions SET status = 'inactive', ended_at = $2 WHERE id = $1 AND status = 'active'`, id, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if err := db.sessionState(ctx, id); err != nil {
			return err
		}
		return store.ErrSessionClosed
	}
	return nil
}

func (db *DB) ListSessions(ctx context.Context, chatID string, status model.Status, limit int) ([]model.Session, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
         WHERE chat_id = $1 AND status = $2
         ORDER BY COALESCE(ended_at, created_at) DESC, created_at DESC
         LIMIT $3`,
		chatID, string(status), lim,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// updateActive runs a single-statement update guarded on the session being
// active.
func (db *DB) updateActive(ctx context.Context, id, set string, args ...any) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE sessions SET `+set+` WHERE id = $1 AND status = 'active'`,
		append([]any{id}, args...)...,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if err := db.sessionState(ctx, id); err != nil {
			return err
		}
		return store.ErrSessionClosed
	}
	return nil
}

func (db *DB) MarkStarted(ctx context.Context, id string, at time.Time) error {
	return db.updateActive(ctx, id, `started_at = COALESCE(started_at, $2)`, at)
}

func (db *DB) SaveRanking(ctx context.Context, id string, ranking []model.RankEntry) error {
	raw, _, err := store.EncodeDocs(ranking, model.HandState{})
	if err != nil {
		return err
	}
	return db.updateActive(ctx, id, `ranking = $2`, raw)
}

func (db *DB) SaveHand(ctx context.Context, id string, hand model.HandState) error {
	if err := hand.Validate(); err != nil {
		return err
	}
	_, raw, err := store.EncodeDocs(nil, hand)
	if err != nil {
		return err
	}
	return db.updateActive(ctx, id, `hand = $2`, raw)
}

func (db *DB) ClearSession(ctx context.Context, id string) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if model.Status(status) != model.StatusActive {
		return 0, store.ErrSessionClosed
	}

	ct, err := tx.Exec(ctx, `DELETE FROM participants WHERE session_id = $1`, id)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sessions SET ranking = '[]', hand = '{}' WHERE id = $1`, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (db *DB) Counts(ctx context.Context) (model.Counts, error) {
	var c model.Counts
	err := db.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(DISTINCT chat_id) FROM sessions),
			(SELECT COUNT(*) FROM participants)
	`).Scan(&c.Sessions, &c.Chats, &c.Participants)
	if err != nil {
		return model.Counts{}, fmt.Errorf("failed to count records: %w", err)
	}
	return c, nil
}
