package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/chipbot/internal/commands"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/session"
)

// commandTimeout bounds one message or interaction, equity runs included.
const commandTimeout = 30 * time.Second

type Bot struct {
	session  *discordgo.Session
	handler  *commands.Handler
	sender   *sender
	reminder *reminderWorker
}

// New creates the Discord client. idleReminder is how long a game may sit
// quiet with players still in before the chat is nudged; zero disables it.
func New(token string, handler *commands.Handler, sessions *session.Manager, l *ledger.Engine, idleReminder time.Duration) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	b := &Bot{
		session: s,
		handler: handler,
		sender:  &sender{session: s},
	}
	if idleReminder > 0 {
		b.reminder = newReminderWorker(b.sender, sessions, l, idleReminder)
	}

	// Register event handlers
	s.AddHandler(b.onReady)
	s.AddHandler(b.onGuildCreate)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onInteractionCreate)

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return b, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.reminder.start()
	log.Info("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.reminder.stop()
	return b.session.Close()
}
