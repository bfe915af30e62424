package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var manageGuildPermission int64 = discordgo.PermissionManageGuild

// commandDefinitions are the slash commands registered globally on ready.
var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "premium",
		Description: "Premium status and features",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show this server's premium status",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "features",
				Description: "List what premium unlocks",
			},
		},
	},
	{
		Name:        "templates",
		Description: "Work with message templates",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List this server's templates",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "view",
				Description: "Show one template",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Template name",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "send",
				Description: "Send a template to a channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Template name",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Target channel",
						Required:    true,
					},
				},
			},
		},
	},
	{
		Name:        "send",
		Description: "Send an ad-hoc message through the bot",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "message",
				Description: "Send a plain message",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Target channel",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "content",
						Description: "Message content",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "embed",
				Description: "Send a simple embed",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Target channel",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "title",
						Description: "Embed title",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "description",
						Description: "Embed body",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "color",
						Description: "Embed color as an integer",
					},
				},
			},
		},
	},
	{
		Name:                     "setup",
		Description:              "Configure the bot for this server",
		DefaultMemberPermissions: &manageGuildPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "welcome",
				Description: "Set the welcome channel and message",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Channel for welcome messages",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "message",
						Description: "Welcome text; {user} and {server} are substituted",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "autorole",
				Description: "Add a role to auto-assign on join",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to assign to new members",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "audit",
				Description: "Set the audit log channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Channel for audit notifications",
						Required:    true,
					},
				},
			},
		},
	},
}

// registerCommands bulk-overwrites the global command set so removed commands
// disappear without manual cleanup.
func (b *Bot) registerCommands() error {
	appID := b.Session.State.User.ID
	if _, err := b.Session.ApplicationCommandBulkOverwrite(appID, "", commandDefinitions); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.Info().Int("count", len(commandDefinitions)).Msg("slash commands registered")
	return nil
}
