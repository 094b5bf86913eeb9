package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/session"
)

// cardArgs accepts "As Kd", "As,Kd" or one argument per card.
func cardArgs(args []string) ([]cards.Card, error) {
	var tokens []string
	for _, a := range args {
		tokens = append(tokens, strings.FieldsFunc(a, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	if len(tokens) == 0 {
		return nil, usagef("no cards given")
	}
	return cards.ParseList(tokens)
}

func (h *Handler) hole(ctx context.Context, req Request) (string, error) {
	return h.streetCmd(ctx, req, session.Hole)
}

func (h *Handler) flop(ctx context.Context, req Request) (string, error) {
	return h.streetCmd(ctx, req, session.Flop)
}

func (h *Handler) turn(ctx context.Context, req Request) (string, error) {
	return h.streetCmd(ctx, req, session.Turn)
}

func (h *Handler) river(ctx context.Context, req Request) (string, error) {
	return h.streetCmd(ctx, req, session.River)
}

func (h *Handler) streetCmd(ctx context.Context, req Request, street session.Street) (string, error) {
	cs, err := cardArgs(req.Args)
	if err != nil {
		return "", err
	}
	return h.recordStreet(ctx, req, street, cs)
}

// recordStreet stores the cards and, once there is a board, answers with
// the equity report.
func (h *Handler) recordStreet(ctx context.Context, req Request, street session.Street, cs []cards.Card) (string, error) {
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	hand, err := h.sessions.SetHand(ctx, s.ID, street, cs)
	if err != nil {
		return "", err
	}
	if street == session.Hole {
		h.advisor.Cache.Forget(s.ID)
		return fmt.Sprintf("🂠 Hole cards: %s\nSend the flop when it comes, or `equity` for pre-flop odds.", cards.Join(hand.Hole)), nil
	}
	return h.report(ctx, s.ID, hand)
}

func (h *Handler) equityCmd(ctx context.Context, req Request) (string, error) {
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return "", err
	}
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(req.Args[0]))
		if err != nil || n < 1 {
			return "", usagef("%q is not a positive number of opponents", req.Args[0])
		}
		h.setOpponents(s.ID, n)
	}
	if len(s.Hand.Hole) == 0 {
		return "", usagef("record your hole cards first with `hole <card> <card>`")
	}
	return h.report(ctx, s.ID, s.Hand)
}

func (h *Handler) report(ctx context.Context, sessionID string, hand model.HandState) (string, error) {
	board := hand.Board()
	stage, err := equity.StageFor(len(board))
	if err != nil {
		return "", err
	}
	opponents, err := h.opponentsFor(ctx, sessionID)
	if err != nil {
		return "", err
	}
	res, err := equity.Simulate(ctx, hand.Hole, board, opponents, h.equity)
	if err != nil {
		return "", err
	}
	current, err := equity.CurrentCategory(hand.Hole, board)
	if err != nil {
		return "", err
	}
	tips := h.advisor.Advise(sessionID, res, current, stage)
	return formatEquity(hand, stage, current, res, tips), nil
}
