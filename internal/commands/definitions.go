package commands

import "github.com/bwmarrin/discordgo"

func nameOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: desc,
		Required:    true,
	}
}

func chipsOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "chips",
		Description: desc,
		Required:    true,
	}
}

func cardsOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "cards",
		Description: desc,
		Required:    true,
	}
}

// GetCommands returns the slash commands. Option order matches the argument
// order Dispatch expects.
func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "buy",
			Description: "Record a buy-in",
			Options: []*discordgo.ApplicationCommandOption{
				nameOption("Player name"),
				chipsOption("Chips bought"),
			},
		},
		{
			Name:        "end",
			Description: "Record a final stack",
			Options: []*discordgo.ApplicationCommandOption{
				nameOption("Player name"),
				chipsOption("Chips at the end"),
			},
		},
		{
			Name:        "settle",
			Description: "Settle up and close the game",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "ratio",
					Description: "Money per 1000 chips",
					Required:    true,
				},
			},
		},
		{
			Name:        "clear",
			Description: "Remove every player and the tracked hand",
		},
		{
			Name:        "debug",
			Description: "Show the current records",
		},
		{
			Name:        "history",
			Description: "Show past games",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "How many games",
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "stats",
			Description: "Show all-time results per player",
		},
		{
			Name:        "hole",
			Description: "Record your hole cards",
			Options:     []*discordgo.ApplicationCommandOption{cardsOption("Two cards, e.g. As Kd")},
		},
		{
			Name:        "flop",
			Description: "Record the flop and show equity",
			Options:     []*discordgo.ApplicationCommandOption{cardsOption("Three cards, e.g. 2c 7h 9s")},
		},
		{
			Name:        "turn",
			Description: "Record the turn and show equity",
			Options:     []*discordgo.ApplicationCommandOption{cardsOption("One card")},
		},
		{
			Name:        "river",
			Description: "Record the river and show equity",
			Options:     []*discordgo.ApplicationCommandOption{cardsOption("One card")},
		},
		{
			Name:        "equity",
			Description: "Show equity for the tracked hand",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "opponents",
					Description: "Players still in against you",
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "help",
			Description: "Show how to use the bot",
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
