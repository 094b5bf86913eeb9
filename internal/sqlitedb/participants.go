package sqlitedb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

func (db *DB) AddChips(ctx context.Context, sessionID, name string, amount int64) (int64, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO participants (session_id, name, name_key, chips_bought)
         SELECT ?1, ?2, ?3, ?4
         WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ?1 AND status = 'active')
         ON CONFLICT (session_id, name_key)
         DO UPDATE SET chips_bought = chips_bought + excluded.chips_bought
         RETURNING chips_bought`,
		sessionID, name, model.NameKey(name), amount,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
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
	res, err := db.ExecContext(ctx,
		`UPDATE participants SET chips_end = ?3
         WHERE session_id = ?1 AND name_key = ?2
           AND EXISTS (SELECT 1 FROM sessions WHERE id = ?1 AND status = 'active')`,
		sessionID, model.NameKey(name), amount,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if err := db.sessionState(ctx, sessionID); err != nil {
			return err
		}
		return store.ErrNotFound
	}
	return nil
}

func (db *DB) SetChipsEndIfUnset(ctx context.Context, sessionID, name string, amount int64) (bool, error) {
	key := model.NameKey(name)
	res, err := db.ExecContext(ctx,
		`UPDATE participants SET chips_end = ?3
         WHERE session_id = ?1 AND name_key = ?2 AND chips_end IS NULL
           AND EXISTS (SELECT 1 FROM sessions WHERE id = ?1 AND status = 'active')`,
		sessionID, key, amount,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := db.sessionState(ctx, sessionID); err != nil {
		return false, err
	}
	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE session_id = ? AND name_key = ?)`,
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
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, name, chips_bought, chips_end FROM participants WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		var (
			p   model.Participant
			end sql.NullInt64
		)
		if err := rows.Scan(&p.SessionID, &p.Name, &p.ChipsBought, &end); err != nil {
			return nil, err
		}
		if end.Valid {
			v := end.Int64
			p.ChipsEnd = &v
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
