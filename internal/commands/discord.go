package commands

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// MessageLimit is Discord's maximum message length.
const MessageLimit = 2000

// RequestFromInteraction flattens slash command options into positional
// arguments, in the order the command declares them.
func RequestFromInteraction(i *discordgo.InteractionCreate) Request {
	data := i.ApplicationCommandData()
	req := Request{ChatID: i.ChannelID, GuildID: i.GuildID, Command: data.Name}

	byName := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		byName[opt.Name] = opt
	}
	for _, def := range GetCommands() {
		if def.Name != data.Name {
			continue
		}
		for _, o := range def.Options {
			opt, ok := byName[o.Name]
			if !ok {
				continue
			}
			req.Args = append(req.Args, optionString(opt))
		}
	}
	return req
}

func optionString(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionInteger:
		return strconv.FormatInt(opt.IntValue(), 10)
	case discordgo.ApplicationCommandOptionNumber:
		return strconv.FormatFloat(opt.FloatValue(), 'f', -1, 64)
	default:
		return opt.StringValue()
	}
}

// HandleInteraction defers the reply, runs the command and sends the
// result, split across follow-ups when it is too long.
func HandleInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, h *Handler) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Errorf("Failed to defer interaction: %v", err)
		return
	}

	reply := h.Dispatch(ctx, RequestFromInteraction(i))
	chunks := SplitMessage(reply, MessageLimit)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &chunks[0]}); err != nil {
		log.Errorf("Failed to send interaction response: %v", err)
		return
	}
	for _, c := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: c}); err != nil {
			log.Errorf("Failed to send follow-up: %v", err)
			return
		}
	}
}

// SplitMessage breaks content into pieces of at most limit bytes, preferring
// line breaks. It always returns at least one piece.
func SplitMessage(content string, limit int) []string {
	if len(content) <= limit {
		return []string{content}
	}
	var out []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	for _, line := range strings.Split(content, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			out = append(out, line[:cut])
			line = line[cut:]
		}
		if buf.Len() > 0 && buf.Len()+1+len(line) > limit {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	flush()
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
