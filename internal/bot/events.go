package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/chipbot/internal/commands"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Infof("%s is connected!", event.User.Username)

	// Register commands for all guilds
	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			log.Errorf("Failed to register commands for guild %s: %v", guild.ID, err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	log.Infof("Guild available: %s (id=%s), ensuring commands", event.Name, event.ID)
	if err := b.registerGuildCommands(event.ID); err != nil {
		log.Errorf("Failed to register commands for guild %s: %v", event.ID, err)
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	cmds := commands.GetCommands()
	// Delete existing commands and register new ones
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, cmds)
	if err != nil {
		return err
	}

	log.Debugf("Registered application commands for guild %s", guildID)
	return nil
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author == nil || m.Author.Bot {
		return
	}
	b.reminder.touch(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if url := firstImage(m.Attachments); url != "" {
		if reply, ok := b.handler.DispatchImage(ctx, m.ChannelID, m.GuildID, url); ok {
			b.reply(ctx, m.ChannelID, reply)
			return
		}
	}
	if reply, ok := b.handler.DispatchText(ctx, m.ChannelID, m.GuildID, m.Content); ok {
		b.reply(ctx, m.ChannelID, reply)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.reminder.touch(i.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	commands.HandleInteraction(ctx, s, i, b.handler)
}

func (b *Bot) reply(ctx context.Context, channelID, content string) {
	if err := b.sender.send(ctx, channelID, content); err != nil {
		log.Errorf("Failed to reply in channel %s: %v", channelID, err)
	}
}

func firstImage(attachments []*discordgo.MessageAttachment) string {
	for _, a := range attachments {
		if strings.HasPrefix(a.ContentType, "image/") {
			return a.URL
		}
	}
	return ""
}
