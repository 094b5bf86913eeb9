package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/susu3304/chipbot/internal/ledger"
)

const defaultHistory = 5

func parseChips(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, usagef("%q is not a whole number of chips", s)
	}
	return n, nil
}

func nameAndChips(args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, usagef("expected a name and a chip count")
	}
	n, err := parseChips(args[1])
	if err != nil {
		return "", 0, err
	}
	return args[0], n, nil
}

func (h *Handler) buy(ctx context.Context, req Request) (string, error) {
	name, amount, err := nameAndChips(req.Args)
	if err != nil {
		return "", err
	}
	return h.buyMany(ctx, req, amount, []string{name})
}

// buyMany records the same buy-in for several players.
func (h *Handler) buyMany(ctx context.Context, req Request, amount int64, names []string) (string, error) {
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, name := range names {
		total, err := h.ledger.RecordBuy(ctx, s.ID, name, amount)
		if err != nil {
			return strings.Join(lines, "\n"), err
		}
		lines = append(lines, fmt.Sprintf("💰 %s bought %d chips (total %d)", name, amount, total))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) end(ctx context.Context, req Request) (string, error) {
	name, amount, err := nameAndChips(req.Args)
	if err != nil {
		return "", err
	}
	return h.recordEnd(ctx, req, name, amount)
}

func (h *Handler) recordEnd(ctx context.Context, req Request, name string, amount int64) (string, error) {
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	if err := h.ledger.RecordEnd(ctx, s.ID, name, amount); err != nil {
		return "", err
	}
	lines := []string{fmt.Sprintf("🏁 %s finished with %d chips", name, amount)}

	last, err := h.ledger.AutoCompleteLast(ctx, s.ID)
	var mismatch *ledger.InconsistentTotalsError
	switch {
	case errors.As(err, &mismatch):
		lines = append(lines, fmt.Sprintf("⚠️ Only one player left but %d chips are already counted against %d bought.",
			mismatch.End, mismatch.Bought))
	case err != nil:
		return "", err
	case last != nil:
		lines = append(lines, fmt.Sprintf("🤖 %s is the last one playing, set to %d chips.", last.Name, *last.ChipsEnd))
	}

	ok, totals, err := h.ledger.IsConsistent(ctx, s.ID)
	if err != nil {
		return "", err
	}
	if totals.Unfinished == 0 {
		if ok {
			lines = append(lines, "✅ Everyone is done. Use `settle <ratio>` to settle up.")
		} else {
			lines = append(lines, fmt.Sprintf("⚠️ Everyone is done but totals differ: bought %d, counted %d.",
				totals.Bought, totals.End))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) settle(ctx context.Context, req Request) (string, error) {
	if len(req.Args) != 1 {
		return "", usagef("expected the value of 1000 chips")
	}
	ratio, err := strconv.ParseFloat(strings.TrimSpace(req.Args[0]), 64)
	if err != nil {
		return "", usagef("%q is not a number", req.Args[0])
	}
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	if _, err := h.ledger.AutoCompleteLast(ctx, s.ID); err != nil {
		return "", err
	}
	st, err := h.ledger.ComputeSettlement(ctx, s.ID, ratio)
	if err != nil {
		return "", err
	}
	if err := h.sessions.End(ctx, s.ID); err != nil {
		return "", err
	}
	h.forget(s.ID)
	return formatSettlement(st), nil
}

func (h *Handler) clear(ctx context.Context, req Request) (string, error) {
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	n, err := h.sessions.Clear(ctx, s.ID)
	if err != nil {
		return "", err
	}
	h.forget(s.ID)
	return fmt.Sprintf("🧹 Cleared %d players and the tracked hand.", n), nil
}

func (h *Handler) debug(ctx context.Context, req Request) (string, error) {
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	ps, err := h.ledger.Participants(ctx, s.ID)
	if err != nil {
		return "", err
	}
	return formatDebug(s, ps, h.ledger.Tolerance()), nil
}

func (h *Handler) history(ctx context.Context, req Request) (string, error) {
	limit := defaultHistory
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil || n < 1 {
			return "", usagef("%q is not a positive count", req.Args[0])
		}
		limit = n
	}
	past, err := h.sessions.History(ctx, req.ChatID, limit)
	if err != nil {
		return "", err
	}
	return formatHistory(past), nil
}

func (h *Handler) stats(ctx context.Context, req Request) (string, error) {
	past, err := h.sessions.History(ctx, req.ChatID, 0)
	if err != nil {
		return "", err
	}
	return formatStats(ledger.Stats(past)), nil
}
