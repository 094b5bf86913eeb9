// Package session owns the lifecycle of the one active game per chat and
// the hand tracked inside it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/store"
)

type Manager struct {
	store store.Store
	now   func() time.Time
}

func NewManager(st store.Store) *Manager {
	return &Manager{store: st, now: time.Now}
}

// Active returns the chat's active session, creating one if there is none.
func (m *Manager) Active(ctx context.Context, chatID, guildID string) (*model.Session, error) {
	s, err := m.store.ActiveSession(ctx, chatID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}

	s = &model.Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		GuildID:   guildID,
		Status:    model.StatusActive,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		if errors.Is(err, store.ErrActiveExists) {
			// Lost a race with a concurrent command in the same chat.
			return m.store.ActiveSession(ctx, chatID)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Infof("Started session %s for chat %s", s.ID, chatID)
	return s, nil
}

// Current returns the chat's active session without creating one. It
// returns nil when there is none.
func (m *Manager) Current(ctx context.Context, chatID string) (*model.Session, error) {
	s, err := m.store.ActiveSession(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	return s, nil
}

// End closes the session. It becomes read-only history.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if err := m.store.EndSession(ctx, sessionID, m.now().UTC()); err != nil {
		return fmt.Errorf("failed to end session %s: %w", sessionID, err)
	}
	log.Infof("Ended session %s", sessionID)
	return nil
}

// Clear wipes participants, hand and ranking and returns how many
// participants were removed.
func (m *Manager) Clear(ctx context.Context, sessionID string) (int, error) {
	n, err := m.store.ClearSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear session %s: %w", sessionID, err)
	}
	log.Infof("Cleared session %s (%d participants)", sessionID, n)
	return n, nil
}

// History lists the chat's ended sessions, newest first.
func (m *Manager) History(ctx context.Context, chatID string, limit int) ([]model.Session, error) {
	out, err := m.store.ListSessions(ctx, chatID, model.StatusInactive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return out, nil
}
