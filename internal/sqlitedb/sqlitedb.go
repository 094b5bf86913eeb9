// Package sqlitedb is the single-file store for small deployments.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

type DB struct {
	*sql.DB
}

var _ store.Store = (*DB)(nil)

// Open opens (or creates) the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	sqldb, err := sql.Open("sqlite3", dsn+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; serialize through a single connection.
	sqldb.SetMaxOpenConns(1)

	db := &DB{sqldb}
	if err := db.createTables(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) createTables(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			guild_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('active', 'inactive')),
			created_at DATETIME NOT NULL,
			started_at DATETIME,
			ended_at DATETIME,
			ranking TEXT NOT NULL DEFAULT '[]',
			hand TEXT NOT NULL DEFAULT '{}'
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active ON sessions(chat_id) WHERE status = 'active';
		CREATE INDEX IF NOT EXISTS idx_sessions_chat ON sessions(chat_id, status);

		CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			chips_bought INTEGER NOT NULL CHECK (chips_bought >= 0),
			chips_end INTEGER CHECK (chips_end >= 0),
			UNIQUE (session_id, name_key)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

const sessionColumns = `id, chat_id, guild_id, status, created_at, started_at, ended_at, ranking, hand`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*model.Session, error) {
	var (
		s             model.Session
		status        string
		ranking, hand []byte
	)
	err := row.Scan(&s.ID, &s.ChatID, &s.GuildID, &status, &s.CreatedAt, &s.StartedAt, &s.EndedAt, &ranking, &hand)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Status = model.Status(status)
	if err := store.DecodeDocs(&s, ranking, hand); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) sessionState(ctx context.Context, id string) error {
	var status string
	err := db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
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
	return scanSession(db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE chat_id = ? AND status = 'active'`, chatID))
}

func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return scanSession(db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
}

func (db *DB) CreateSession(ctx context.Context, s *model.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	ranking, hand, err := store.EncodeDocs(s.Ranking, s.Hand)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, chat_id, guild_id, status, created_at, started_at, ended_at, ranking, hand)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ChatID, s.GuildID, string(s.Status), s.CreatedAt.UTC(), utcPtr(s.StartedAt), utcPtr(s.EndedAt),
		string(ranking), string(hand),
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique &&
			strings.Contains(se.Error(), "sessions.chat_id") {
			return store.ErrActiveExists
		}
		return err
	}
	return nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// updateActive is a single UPDATE guarded on the session being active.
func (db *DB) updateActive(ctx context.Context, id, set string, args ...any) error {
	res, err := db.ExecContext(ctx,
		`UPDATE sessions SET `+set+` WHERE id = ? AND status = 'active'`,
		append(args, id)...,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		if err := db.sessionState(ctx, id); err != nil {
			return err
		}
		return store.ErrSessionClosed
	}
	return nil
}

func (db *DB) EndSession(ctx context.Context, id string, at time.Time) error {
	return db.updateActive(ctx, id, `status = 'inactive', ended_at = ?`, at.UTC())
}

func (db *DB) MarkStarted(ctx context.Context, id string, at time.Time) error {
	return db.updateActive(ctx, id, `started_at = COALESCE(started_at, ?)`, at.UTC())
}

func (db *DB) SaveRanking(ctx context.Context, id string, ranking []model.RankEntry) error {
	raw, _, err := store.EncodeDocs(ranking, model.HandState{})
	if err != nil {
		return err
	}
	return db.updateActive(ctx, id, `ranking = ?`, string(raw))
}

func (db *DB) SaveHand(ctx context.Context, id string, hand model.HandState) error {
	if err := hand.Validate(); err != nil {
		return err
	}
	_, raw, err := store.EncodeDocs(nil, hand)
	if err != nil {
		return err
	}
	return db.updateActive(ctx, id, `hand = ?`, string(raw))
}

func (db *DB) ListSessions(ctx context.Context, chatID string, status model.Status, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
         WHERE chat_id = ? AND status = ?
         ORDER BY COALESCE(ended_at, created_at) DESC, rowid DESC
         LIMIT ?`,
		chatID, string(status), limit,
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

func (db *DB) ClearSession(ctx context.Context, id string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if model.Status(status) != model.StatusActive {
		return 0, store.ErrSessionClosed
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE session_id = ?`, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET ranking = '[]', hand = '{}' WHERE id = ?`, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (db *DB) Counts(ctx context.Context) (model.Counts, error) {
	var c model.Counts
	err := db.QueryRowContext(ctx, `
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
