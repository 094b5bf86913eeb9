package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/session"
)

// reminderWorker nudges chats whose game has gone quiet while some players
// have not reported their final stack. Each quiet spell gets one reminder.
type reminderWorker struct {
	sessions *session.Manager
	ledger   *ledger.Engine
	sender   *sender
	idle     time.Duration
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	activity map[string]time.Time // chat -> last message
	reminded map[string]bool

	stopChan chan struct{}
	ticker   *time.Ticker
}

func newReminderWorker(s *sender, sessions *session.Manager, l *ledger.Engine, idle time.Duration) *reminderWorker {
	return &reminderWorker{
		sessions: sessions,
		ledger:   l,
		sender:   s,
		idle:     idle,
		interval: time.Minute,
		now:      time.Now,
		activity: make(map[string]time.Time),
		reminded: make(map[string]bool),
		stopChan: make(chan struct{}),
	}
}

func (w *reminderWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *reminderWorker) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

// touch records activity in a chat and re-arms its reminder.
func (w *reminderWorker) touch(chatID string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.activity[chatID] = w.now()
	delete(w.reminded, chatID)
	w.mu.Unlock()
}

func (w *reminderWorker) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *reminderWorker) due() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	var chats []string
	for chat, last := range w.activity {
		if !w.reminded[chat] && now.Sub(last) >= w.idle {
			chats = append(chats, chat)
		}
	}
	return chats
}

func (w *reminderWorker) tick(ctx context.Context) {
	for _, chat := range w.due() {
		msg, err := w.message(ctx, chat)
		if err != nil {
			log.Errorf("reminder: failed to check chat %s: %v", chat, err)
			continue
		}
		if msg == "" {
			w.mu.Lock()
			delete(w.activity, chat)
			w.mu.Unlock()
			continue
		}
		if err := w.sender.send(ctx, chat, msg); err != nil {
			// Left armed, so the next tick retries.
			log.Warnf("reminder: failed to send message to channel %s: %v", chat, err)
			continue
		}
		w.mu.Lock()
		w.reminded[chat] = true
		w.mu.Unlock()
	}
}

// message is empty when the chat has nothing left to report.
func (w *reminderWorker) message(ctx context.Context, chatID string) (string, error) {
	s, err := w.sessions.Current(ctx, chatID)
	if err != nil || s == nil {
		return "", err
	}
	playing, err := w.ledger.Unfinished(ctx, s.ID)
	if err != nil {
		return "", err
	}
	if len(playing) == 0 {
		return "", nil
	}
	names := make([]string, len(playing))
	for i, p := range playing {
		names[i] = p.Name
	}
	return fmt.Sprintf("⏰ This game has been quiet for %s. Still playing: %s.\n"+
		"Record final stacks with `end <name> <chips>`, or `clear` to start over.\n\n"+
		"(automatic message)", shortDuration(w.idle), strings.Join(names, ", ")), nil
}

// shortDuration renders 3h0m0s as 3h and 45m0s as 45m.
func shortDuration(d time.Duration) string {
	s := strings.TrimSuffix(d.Round(time.Minute).String(), "0s")
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
