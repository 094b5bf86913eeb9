// Package commands turns chat input into ledger, session and equity calls
// and renders the replies. It does not depend on any chat transport; the
// Discord glue lives in discord.go.
package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/susu3304/chipbot/internal/advice"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/vision"
)

// Request is one parsed command.
type Request struct {
	ChatID  string
	GuildID string
	Command string
	Args    []string
}

type Handler struct {
	sessions *session.Manager
	ledger   *ledger.Engine
	advisor  *advice.Advisor
	equity   equity.Options
	vision   vision.Recognizer

	mu        sync.Mutex
	opponents map[string]int // explicit opponent counts per session
}

// NewHandler wires the services together. recognizer may be nil, in which
// case images are ignored.
func NewHandler(sessions *session.Manager, l *ledger.Engine, advisor *advice.Advisor, eq equity.Options, recognizer vision.Recognizer) *Handler {
	return &Handler{
		sessions:  sessions,
		ledger:    l,
		advisor:   advisor,
		equity:    eq,
		vision:    recognizer,
		opponents: make(map[string]int),
	}
}

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	run     func(h *Handler, ctx context.Context, req Request) (string, error)
}

func commandList() []command {
	return []command{
		{name: "buy", usage: "buy <name> <chips>", help: "Record a buy-in", run: (*Handler).buy},
		{name: "end", usage: "end <name> <chips>", help: "Record a final stack", run: (*Handler).end},
		{name: "settle", aliases: []string{"summary"}, usage: "settle <ratio>", help: "Settle up at <ratio> per 1000 chips and close the game", run: (*Handler).settle},
		{name: "clear", usage: "clear", help: "Remove every player and the tracked hand", run: (*Handler).clear},
		{name: "debug", usage: "debug", help: "Show the current records", run: (*Handler).debug},
		{name: "history", usage: "history [count]", help: "Show past games", run: (*Handler).history},
		{name: "stats", usage: "stats", help: "Show all-time results per player", run: (*Handler).stats},
		{name: "hole", usage: "hole <card> <card>", help: "Record your hole cards", run: (*Handler).hole},
		{name: "flop", usage: "flop <card> <card> <card>", help: "Record the flop and show equity", run: (*Handler).flop},
		{name: "turn", usage: "turn <card>", help: "Record the turn and show equity", run: (*Handler).turn},
		{name: "river", usage: "river <card>", help: "Record the river and show equity", run: (*Handler).river},
		{name: "equity", usage: "equity [opponents]", help: "Show equity for the tracked hand", run: (*Handler).equityCmd},
		{name: "help", usage: "help", help: "Show this message", run: (*Handler).help},
	}
}

func lookup(name string) (command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range commandList() {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// Dispatch runs a command and always returns something to show the user.
func (h *Handler) Dispatch(ctx context.Context, req Request) string {
	cmd, ok := lookup(req.Command)
	if !ok {
		return fmt.Sprintf("❓ Unknown command `%s`. Try `help`.", req.Command)
	}
	log.Debugf("Dispatch chat=%s cmd=%s args=%v", req.ChatID, cmd.name, req.Args)
	reply, err := cmd.run(h, ctx, req)
	if err != nil {
		return errorReply(cmd, err)
	}
	return reply
}

func (h *Handler) activeSession(ctx context.Context, req Request) (*model.Session, error) {
	return h.sessions.Active(ctx, req.ChatID, req.GuildID)
}

func (h *Handler) setOpponents(sessionID string, n int) {
	h.mu.Lock()
	h.opponents[sessionID] = n
	h.mu.Unlock()
}

// forget drops per-session state held outside the store.
func (h *Handler) forget(sessionID string) {
	h.mu.Lock()
	delete(h.opponents, sessionID)
	h.mu.Unlock()
	h.advisor.Cache.Forget(sessionID)
}

// opponentsFor uses the count given with `equity N` if there was one, else
// everyone still playing except the player tracking the hand.
func (h *Handler) opponentsFor(ctx context.Context, sessionID string) (int, error) {
	h.mu.Lock()
	n, ok := h.opponents[sessionID]
	h.mu.Unlock()
	if ok {
		return n, nil
	}
	playing, err := h.ledger.Unfinished(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n = len(playing) - 1
	if n < 1 {
		return 0, equity.ErrInsufficientOpponents
	}
	return n, nil
}

func (h *Handler) help(context.Context, Request) (string, error) {
	var b strings.Builder
	b.WriteString("🃏 **Chip tracker**\n")
	for _, c := range commandList() {
		fmt.Fprintf(&b, "`%s` %s\n", c.usage, c.help)
	}
	b.WriteString("\nShortcuts: `alice=150` final stack, `+100 alice bob` buy-ins, ")
	b.WriteString("`As Kd` hole, `2c 7h 9s` flop, `Qh` turn then river. ")
	b.WriteString("Commands also work as `!buy alice 100`.")
	return b.String(), nil
}
