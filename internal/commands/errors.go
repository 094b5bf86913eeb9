package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/session"
)

// UsageError is a malformed argument list.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

func usagef(format string, args ...any) error {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

// errorReply maps domain errors to messages. Anything unexpected is logged
// and the user gets a generic notice.
func errorReply(cmd command, err error) string {
	var (
		usage      *UsageError
		notFound   *ledger.NotFoundError
		mismatch   *ledger.InconsistentTotalsError
		incomplete *ledger.IncompleteDataError
	)
	switch {
	case errors.As(err, &usage):
		return fmt.Sprintf("⚠️ %s\nUsage: `%s`", usage.Reason, cmd.usage)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidRatio),
		errors.Is(err, ledger.ErrInvalidName):
		return fmt.Sprintf("⚠️ %v\nUsage: `%s`", err, cmd.usage)
	case errors.As(err, &notFound):
		return fmt.Sprintf("❓ Player %s not found. Buy in first with `buy %s <chips>`.", notFound.Name, notFound.Name)
	case errors.As(err, &mismatch):
		allowed := int64(mismatch.Tolerance * float64(mismatch.Bought))
		return fmt.Sprintf("🚫 Chip totals don't add up: bought %d, counted %d (allowed difference %d).\n"+
			"Fix the final stacks with `end <name> <chips>` and try again.",
			mismatch.Bought, mismatch.End, allowed)
	case errors.As(err, &incomplete):
		return fmt.Sprintf("⏳ Still playing: %s. Record their final stacks with `end <name> <chips>` first.",
			strings.Join(incomplete.Names, ", "))
	case errors.Is(err, ledger.ErrNoParticipants):
		return "🪑 Nobody has bought in yet."
	case errors.Is(err, equity.ErrInsufficientOpponents):
		return "👥 Not enough players still in to guess the opponents. Use `equity <opponents>`."
	case errors.Is(err, cards.ErrInvalidCard),
		errors.Is(err, equity.ErrInvalidCards),
		errors.Is(err, session.ErrWrongCardCount),
		errors.Is(err, session.ErrOutOfOrder),
		errors.Is(err, session.ErrHandComplete),
		errors.Is(err, session.ErrDuplicateCard):
		return fmt.Sprintf("⚠️ %v\nUsage: `%s`", err, cmd.usage)
	}
	log.Errorf("Command %s failed: %v", cmd.name, err)
	return "💥 Something went wrong, please try again."
}
