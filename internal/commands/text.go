package commands

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/session"
)

const prefix = "!"

var (
	endPattern = regexp.MustCompile(`^(\S+?)\s*=\s*(-?\d+)$`)
	buyPattern = regexp.MustCompile(`^\+(\d+)\s+(.+)$`)
)

// DispatchText handles plain chat messages. It reports false when the text
// is ordinary conversation and should be ignored.
//
// Recognised shapes:
//
//	!cmd args...   any command
//	alice=150      final stack
//	+100 alice bob buy-ins
//	As Kd          hole cards (2 cards), flop (3), turn or river (1)
func (h *Handler) DispatchText(ctx context.Context, chatID, guildID, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	req := Request{ChatID: chatID, GuildID: guildID}

	if strings.HasPrefix(text, prefix) {
		fields := strings.Fields(strings.TrimPrefix(text, prefix))
		if len(fields) == 0 {
			return "", false
		}
		req.Command, req.Args = fields[0], fields[1:]
		return h.Dispatch(ctx, req), true
	}

	if m := endPattern.FindStringSubmatch(text); m != nil {
		req.Command = "end"
		cmd, _ := lookup(req.Command)
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return errorReply(cmd, usagef("%q is out of range", m[2])), true
		}
		reply, err := h.recordEnd(ctx, req, m[1], n)
		if err != nil {
			return errorReply(cmd, err), true
		}
		return reply, true
	}

	if m := buyPattern.FindStringSubmatch(text); m != nil {
		req.Command = "buy"
		cmd, _ := lookup(req.Command)
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return errorReply(cmd, usagef("%q is out of range", m[1])), true
		}
		reply, err := h.buyMany(ctx, req, n, strings.Fields(m[2]))
		if err != nil {
			if reply != "" {
				return reply + "\n" + errorReply(cmd, err), true
			}
			return errorReply(cmd, err), true
		}
		return reply, true
	}

	fields := strings.Fields(text)
	if len(fields) < 1 || len(fields) > 3 {
		return "", false
	}
	for _, f := range fields {
		if !cards.IsToken(f) {
			return "", false
		}
	}
	return h.dispatchCards(ctx, req, fields)
}

// dispatchCards records a bare list of card tokens on the street implied by
// its length. A lone card with no flop to follow is treated as chatter.
func (h *Handler) dispatchCards(ctx context.Context, req Request, tokens []string) (string, bool) {
	cs, err := cards.ParseList(tokens)
	if err != nil {
		cmd, _ := lookup("hole")
		return errorReply(cmd, err), true
	}
	s, err := h.activeSession(ctx, req)
	if err != nil {
		return errorReply(command{name: "cards", usage: "hole | flop | turn | river"}, err), true
	}
	street, err := session.StreetFor(s.Hand, len(cs))
	if err != nil {
		if len(cs) == 1 {
			return "", false
		}
		cmd, _ := lookup("hole")
		return errorReply(cmd, err), true
	}
	cmd, _ := lookup(street.String())
	reply, err := h.recordStreet(ctx, req, street, cs)
	if err != nil {
		return errorReply(cmd, err), true
	}
	return reply, true
}

// DispatchImage reads cards from a photo and records them like typed cards.
// It reports false when no recognizer is configured.
func (h *Handler) DispatchImage(ctx context.Context, chatID, guildID, imageURL string) (string, bool) {
	if h.vision == nil {
		return "", false
	}
	labels, err := h.vision.Recognize(ctx, imageURL)
	if err != nil {
		log.Errorf("Card recognition failed for chat %s: %v", chatID, err)
		return "📷 Couldn't read that photo, please type the cards instead.", true
	}
	if len(labels) == 0 {
		return "📷 No cards found in that photo.", true
	}
	log.Debugf("Recognised %v in chat %s", labels, chatID)
	reply, ok := h.dispatchCards(ctx, Request{ChatID: chatID, GuildID: guildID}, labels)
	if !ok {
		return "📷 Found " + strings.Join(labels, " ") + " but there is no flop to add it to.", true
	}
	return reply, true
}
