// Package store defines the persistence contract for sessions and
// participants. Every backend folds names with model.NameKey and performs
// each participant mutation as one atomic operation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/susu3304/chipbot/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrActiveExists  = errors.New("chat already has an active session")
	ErrSessionClosed = errors.New("session is no longer active")
)

type Store interface {
	// ActiveSession returns ErrNotFound when the chat has no active session.
	ActiveSession(ctx context.Context, chatID string) (*model.Session, error)
	// CreateSession returns ErrActiveExists if another active session won.
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	EndSession(ctx context.Context, id string, at time.Time) error
	// ListSessions returns the chat's sessions with the given status, newest
	// first. A limit of zero or less returns all of them.
	ListSessions(ctx context.Context, chatID string, status model.Status, limit int) ([]model.Session, error)
	// MarkStarted sets the start time unless it is already set.
	MarkStarted(ctx context.Context, id string, at time.Time) error
	SaveRanking(ctx context.Context, id string, ranking []model.RankEntry) error
	SaveHand(ctx context.Context, id string, hand model.HandState) error
	// ClearSession removes every participant and resets the ranking and hand,
	// returning how many participants were removed.
	ClearSession(ctx context.Context, id string) (int, error)

	// AddChips increments chips bought, creating the participant on first
	// use, and returns the new total.
	AddChips(ctx context.Context, sessionID, name string, amount int64) (int64, error)
	// SetChipsEnd returns ErrNotFound for unknown names.
	SetChipsEnd(ctx context.Context, sessionID, name string, amount int64) error
	// SetChipsEndIfUnset sets the end stack only if it is still unset and
	// reports whether it did.
	SetChipsEndIfUnset(ctx context.Context, sessionID, name string, amount int64) (bool, error)
	// Participants lists the session's participants in the order they joined.
	Participants(ctx context.Context, sessionID string) ([]model.Participant, error)

	Counts(ctx context.Context) (model.Counts, error)
	Ping(ctx context.Context) error
	Close() error
}
