package bot

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/chipbot/internal/commands"
)

// Minimal session interface for sending channel messages.
type messageSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type sender struct {
	session messageSession
}

// send posts content, split into Discord-sized pieces.
func (s *sender) send(ctx context.Context, channelID, content string) error {
	for _, part := range commands.SplitMessage(content, commands.MessageLimit) {
		if err := s.sendWithRetry(ctx, channelID, part); err != nil {
			return err
		}
	}
	return nil
}

func (s *sender) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTimeout(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(300+rand.Intn(500)) * time.Millisecond):
		}
	}
	return lastErr
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
