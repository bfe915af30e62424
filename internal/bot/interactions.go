package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/store"
	"github.com/digamber-in/digamber-bot/internal/validate"
)

const embedColor = 0x5865F2

// onInteractionCreate acknowledges the command immediately with a deferred
// ephemeral reply, then routes it. Discord gives three seconds to acknowledge;
// store and REST calls happen after the deferral.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	b.metrics.CommandsHandled.WithLabelValues(data.Name).Inc()

	// Commands only make sense inside a guild; DMs have no member.
	if i.GuildID == "" || i.Member == nil {
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "This command only works in a server.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.log.Error().Err(err).Str("command", data.Name).Msg("failed to defer interaction")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch data.Name {
	case "premium":
		err = b.handlePremiumCommand(ctx, s, i)
	case "templates":
		err = b.handleTemplatesCommand(ctx, s, i)
	case "send":
		err = b.handleSendCommand(ctx, s, i)
	case "setup":
		err = b.handleSetupCommand(ctx, s, i)
	default:
		err = b.replyText(s, i, "Unknown command.")
	}
	if err != nil {
		b.log.Error().Err(err).Str("command", data.Name).Msg("command failed")
		_ = b.replyText(s, i, "Something went wrong while handling the command.")
	}
}

func (b *Bot) replyText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	return err
}

func (b *Bot) replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

// subCommand returns the invoked subcommand and its options keyed by name.
func subCommand(i *discordgo.InteractionCreate) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return "", nil
	}
	sub := data.Options[0]
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, o := range sub.Options {
		opts[o.Name] = o
	}
	return sub.Name, opts
}

func (b *Bot) handlePremiumCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sub, _ := subCommand(i)
	switch sub {
	case "status":
		grant, err := b.premium.ActiveForGuild(ctx, i.GuildID)
		if err != nil {
			return err
		}
		embed := &discordgo.MessageEmbed{
			Title: "Premium Status",
			Color: embedColor,
			Footer: &discordgo.MessageEmbedFooter{
				Text: "Manage premium at " + b.dashboardURL,
			},
		}
		if grant == nil {
			embed.Description = "This server does not have premium. Unlock advanced templates and scheduling from the dashboard."
		} else {
			embed.Description = "This server has an active premium subscription."
			embed.Fields = []*discordgo.MessageEmbedField{
				{Name: "Tier", Value: string(grant.Tier), Inline: true},
				{Name: "Status", Value: string(grant.Status), Inline: true},
				{Name: "Renews", Value: grant.CurrentPeriodEnd.Format("2006-01-02"), Inline: true},
			}
		}
		return b.replyEmbed(s, i, embed)

	case "features":
		return b.replyEmbed(s, i, &discordgo.MessageEmbed{
			Title: "Premium Features",
			Color: embedColor,
			Description: strings.Join([]string{
				"• Templates with multiple embeds",
				"• Buttons and select menus in templates",
				"• Scheduled message delivery",
			}, "\n"),
			Footer: &discordgo.MessageEmbedFooter{Text: "Subscribe at " + b.dashboardURL},
		})
	}
	return b.replyText(s, i, "Unknown subcommand.")
}

func (b *Bot) handleTemplatesCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sub, opts := subCommand(i)
	switch sub {
	case "list":
		templates, err := b.templates.List(ctx, i.GuildID, "")
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			return b.replyText(s, i, "No templates yet. Create one from the dashboard: "+b.dashboardURL)
		}
		var sb strings.Builder
		for _, t := range templates {
			fmt.Fprintf(&sb, "• **%s**", t.Name)
			if t.ScheduledFor != nil {
				fmt.Fprintf(&sb, " (scheduled %s)", t.ScheduledFor.Format(time.RFC3339))
			}
			sb.WriteString("\n")
		}
		return b.replyEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "Templates",
			Color:       embedColor,
			Description: sb.String(),
		})

	case "view":
		tmpl, err := b.templateByName(ctx, i.GuildID, validate.SanitizeInput(opts["name"].StringValue()))
		if err != nil {
			return err
		}
		if tmpl == nil {
			return b.replyText(s, i, "No template with that name.")
		}
		preview := tmpl.Content
		if len(preview) > 500 {
			preview = preview[:500] + "…"
		}
		return b.replyEmbed(s, i, &discordgo.MessageEmbed{
			Title:       tmpl.Name,
			Color:       embedColor,
			Description: preview,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Embeds", Value: fmt.Sprint(len(tmpl.Embeds)), Inline: true},
				{Name: "Component rows", Value: fmt.Sprint(len(tmpl.Components)), Inline: true},
			},
		})

	case "send":
		ok, err := b.Roles.IsModerator(ctx, i.GuildID, i.Member.User.ID)
		if err != nil {
			return err
		}
		if !ok {
			return b.replyText(s, i, "You need moderator permissions to send templates.")
		}
		tmpl, err := b.templateByName(ctx, i.GuildID, validate.SanitizeInput(opts["name"].StringValue()))
		if err != nil {
			return err
		}
		if tmpl == nil {
			return b.replyText(s, i, "No template with that name.")
		}
		channel := opts["channel"].ChannelValue(s)
		result, err := b.engine.Send(ctx, tmpl.ID, i.GuildID, channel.ID, i.Member.User.ID, "")
		if err != nil {
			return err
		}
		return b.replyText(s, i, fmt.Sprintf("Template **%s** sent to <#%s>.", tmpl.Name, result.ChannelID))
	}
	return b.replyText(s, i, "Unknown subcommand.")
}

// templateByName does a case-insensitive name lookup among the guild's active
// templates. Names are not unique; the newest match wins.
func (b *Bot) templateByName(ctx context.Context, guildID, name string) (*models.Template, error) {
	templates, err := b.templates.List(ctx, guildID, "")
	if err != nil {
		return nil, err
	}
	for idx := range templates {
		if strings.EqualFold(templates[idx].Name, name) {
			return &templates[idx], nil
		}
	}
	return nil, nil
}

func (b *Bot) handleSendCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := b.Roles.IsModerator(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		return err
	}
	if !ok {
		return b.replyText(s, i, "You need moderator permissions to send messages through the bot.")
	}

	sub, opts := subCommand(i)

	switch sub {
	case "message":
		channel := opts["channel"].ChannelValue(s)
		msg, err := s.ChannelMessageSend(channel.ID, validate.SanitizeInput(opts["content"].StringValue()))
		if err != nil {
			return err
		}
		b.auditBotMessage(ctx, i, channel.ID, msg.ID)
		return b.replyText(s, i, fmt.Sprintf("Message sent to <#%s>.", channel.ID))

	case "embed":
		channel := opts["channel"].ChannelValue(s)
		embed := &discordgo.MessageEmbed{
			Title:       validate.SanitizeInput(opts["title"].StringValue()),
			Description: validate.SanitizeInput(opts["description"].StringValue()),
			Color:       embedColor,
		}
		if c, found := opts["color"]; found {
			embed.Color = int(c.IntValue())
		}
		msg, err := s.ChannelMessageSendEmbed(channel.ID, embed)
		if err != nil {
			return err
		}
		b.auditBotMessage(ctx, i, channel.ID, msg.ID)
		return b.replyText(s, i, fmt.Sprintf("Embed sent to <#%s>.", channel.ID))
	}
	return b.replyText(s, i, "Unknown subcommand.")
}

func (b *Bot) auditBotMessage(ctx context.Context, i *discordgo.InteractionCreate, channelID, messageID string) {
	b.audit.Append(ctx, store.Entry{
		GuildID: i.GuildID,
		UserID:  i.Member.User.ID,
		Action:  models.ActionMessageSent,
		Details: map[string]any{
			"channelId": channelID,
			"messageId": messageID,
			"via":       "slash command",
		},
	})
	b.metrics.MessagesSent.Inc()
}

func (b *Bot) handleSetupCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := b.Roles.IsAdmin(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		return err
	}
	if !ok {
		return b.replyText(s, i, "You need admin permissions to configure the bot.")
	}

	sub, opts := subCommand(i)
	actorID := i.Member.User.ID

	switch sub {
	case "welcome":
		channel := opts["channel"].ChannelValue(s)
		patch := store.ConfigUpdate{WelcomeChannelID: &channel.ID}
		if o, found := opts["message"]; found {
			message := validate.SanitizeInput(o.StringValue())
			patch.WelcomeMessage = &message
		}
		if _, err := b.configs.Update(ctx, i.GuildID, patch, actorID, ""); err != nil {
			return err
		}
		return b.replyText(s, i, fmt.Sprintf("Welcome messages will go to <#%s>.", channel.ID))

	case "autorole":
		role := opts["role"].RoleValue(s, i.GuildID)
		cfg, err := b.configs.Get(ctx, i.GuildID)
		if err != nil {
			return err
		}
		for _, id := range cfg.AutoAssignRoles {
			if id == role.ID {
				return b.replyText(s, i, "That role is already auto-assigned.")
			}
		}
		roles := append(cfg.AutoAssignRoles, role.ID)
		patch := store.ConfigUpdate{AutoAssignRoles: &roles}
		if _, err := b.configs.Update(ctx, i.GuildID, patch, actorID, ""); err != nil {
			return err
		}
		return b.replyText(s, i, fmt.Sprintf("New members will get the **%s** role.", role.Name))

	case "audit":
		channel := opts["channel"].ChannelValue(s)
		patch := store.ConfigUpdate{AuditChannelID: &channel.ID}
		if _, err := b.configs.Update(ctx, i.GuildID, patch, actorID, ""); err != nil {
			return err
		}
		return b.replyText(s, i, fmt.Sprintf("Audit notifications will go to <#%s>.", channel.ID))
	}
	return b.replyText(s, i, "Unknown subcommand.")
}
