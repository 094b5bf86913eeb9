package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/susu3304/chipbot/internal/store"
)

var (
	ErrInvalidAmount  = errors.New("invalid chip amount")
	ErrInvalidRatio   = errors.New("ratio must be a positive number")
	ErrInvalidName    = errors.New("player name must not be empty")
	ErrNoParticipants = errors.New("session has no participants")
)

// NotFoundError reports an unknown participant name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("player %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

// InconsistentTotalsError blocks settlement when chips were not conserved.
type InconsistentTotalsError struct {
	Bought    int64
	End       int64
	Tolerance float64
}

func (e *InconsistentTotalsError) Error() string {
	return fmt.Sprintf("chip totals do not match: bought %d, ended %d (tolerance %.1f%%)",
		e.Bought, e.End, e.Tolerance*100)
}

// IncompleteDataError names the participants who have not cashed out.
type IncompleteDataError struct {
	Names []string
}

func (e *IncompleteDataError) Error() string {
	return "still playing: " + strings.Join(e.Names, ", ")
}
