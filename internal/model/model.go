// Package model defines the records shared by the ledger, the session
// manager and every storage backend.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

var ErrInvalidRecord = errors.New("invalid record")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Session is one tracked game in a chat.
type Session struct {
	ID        string
	ChatID    string
	GuildID   string
	Status    Status
	CreatedAt time.Time
	StartedAt *time.Time // set on first buy-in
	EndedAt   *time.Time
	Ranking   []RankEntry
	Hand      HandState
}

func (s *Session) Active() bool {
	return s.Status == StatusActive
}

func (s *Session) Validate() error {
	if s.ID == "" || s.ChatID == "" {
		return fmt.Errorf("%w: session needs id and chat id", ErrInvalidRecord)
	}
	switch s.Status {
	case StatusActive:
		if s.EndedAt != nil {
			return fmt.Errorf("%w: active session %s has an end time", ErrInvalidRecord, s.ID)
		}
	case StatusInactive:
	default:
		return fmt.Errorf("%w: session %s has status %q", ErrInvalidRecord, s.ID, s.Status)
	}
	for _, r := range s.Ranking {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%w: ranking entry without a name in session %s", ErrInvalidRecord, s.ID)
		}
	}
	if err := s.Hand.Validate(); err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	return nil
}

// Participant is one player's chip record within a session.
type Participant struct {
	SessionID   string
	Name        string
	ChipsBought int64
	ChipsEnd    *int64 // nil while still playing
}

func (p Participant) Finished() bool {
	return p.ChipsEnd != nil
}

func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: participant without a name", ErrInvalidRecord)
	}
	if p.ChipsBought < 0 {
		return fmt.Errorf("%w: %s bought %d chips", ErrInvalidRecord, p.Name, p.ChipsBought)
	}
	if p.ChipsEnd != nil && *p.ChipsEnd < 0 {
		return fmt.Errorf("%w: %s ended with %d chips", ErrInvalidRecord, p.Name, *p.ChipsEnd)
	}
	return nil
}

// RankEntry is a settled amount in currency. Positive receives, negative pays.
type RankEntry struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Counts backs the status endpoint.
type Counts struct {
	Sessions     int64 `json:"sessions"`
	Chats        int64 `json:"chats"`
	Participants int64 `json:"participants"`
}

// NameKey folds a display name into the key used for matching.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
