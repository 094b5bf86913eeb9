package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

// AddChips is a single upsert so concurrent buy-ins never lose an update.
func (db *DB) AddChips(ctx context.Context, sessionID, name string, amount int64) (int64, error) {
	var total int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO participants (session_id, name, name_key, chips_bought)
         SELECT $1, $2, $3, $4
         WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND status = 'active')
         ON CONFLICT (session_id, name_key)
         DO UPDATE SET chips_bought = participants.chips_bought + EXCLUDED.chips_bought
         RETURNING chips_bought`,
		sessionID, name, model.NameKey(name), amount,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := db.sessionState(ctx, sessionID); err != nil {
			return 0, err
		}
		return 0, store.ErrSessionClosed
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (db *DB) SetChipsEnd(ctx context.Context, sessionID, name string, amount int64) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE participants SET chips_end = $3
         WHERE session_id = $1 AND name_key = $2
           AND EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND status = 'active')`,
		sessionID, model.NameKey(name), amount,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if err := db.sessionState(ctx, sessionID); err != nil {
			return err
		}
		return store.ErrNotFound
	}
	return nil
}

func (db *DB) SetChipsEndIfUnset(ctx context.Context, sessionID, name string, amount int64) (bool, error) {
	key := model.NameKey(name)
	ct, err := db.pool.Exec(ctx,
		`UPDATE participants SET chips_end = $3
         WHERE session_id = $1 AND name_key = $2 AND chips_end IS NULL
           AND EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND status = 'active')`,
		sessionID, key, amount,
	)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() > 0 {
		return true, nil
	}
	if err := db.sessionState(ctx, sessionID); err != nil {
		return false, err
	}
	var exists bool
	err = db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE session_id = $1 AND name_key = $2)`,
		sessionID, key,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (db *DB) Participants(ctx context.Context, sessionID string) ([]model.Participant, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, name, chips_bought, chips_end FROM participants WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.SessionID, &p.Name, &p.ChipsBought, &p.ChipsEnd); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
