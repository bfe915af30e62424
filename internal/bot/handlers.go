package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/store"
)

const eventTimeout = 15 * time.Second

// onGuildMemberAdd assigns the configured auto-roles and posts the welcome
// message, when either is configured.
func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	cfg, err := b.configs.Get(ctx, m.GuildID)
	if err != nil {
		b.log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to load guild config on member join")
		return
	}

	for _, roleID := range cfg.AutoAssignRoles {
		if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, roleID); err != nil {
			b.log.Error().Err(err).
				Str("guild_id", m.GuildID).
				Str("role_id", roleID).
				Msg("failed to auto-assign role")
			continue
		}
		b.audit.Append(ctx, store.Entry{
			GuildID: m.GuildID,
			UserID:  m.User.ID,
			Action:  models.ActionRoleAdded,
			Details: map[string]any{"roleId": roleID, "reason": "auto-assign on join"},
		})
	}

	if cfg.WelcomeChannelID == "" {
		return
	}
	guildName := m.GuildID
	if guild, err := s.State.Guild(m.GuildID); err == nil {
		guildName = guild.Name
	}
	message := cfg.WelcomeMessage
	if message == "" {
		message = models.DefaultWelcomeMessage
	}
	if _, err := s.ChannelMessageSend(cfg.WelcomeChannelID, FormatWelcome(message, m.User.ID, guildName)); err != nil {
		b.log.Error().Err(err).Str("guild_id", m.GuildID).Msg("failed to send welcome message")
	}
}

// onGuildMemberUpdate audits role and nickname changes. Discord does not say
// who made the change, so entries are attributed to the affected member.
func (b *Bot) onGuildMemberUpdate(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.BeforeUpdate == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	added, removed := diffRoles(m.BeforeUpdate.Roles, m.Roles)
	for _, roleID := range added {
		b.audit.Append(ctx, store.Entry{
			GuildID: m.GuildID,
			UserID:  m.User.ID,
			Action:  models.ActionRoleAdded,
			Details: map[string]any{"roleId": roleID},
		})
	}
	for _, roleID := range removed {
		b.audit.Append(ctx, store.Entry{
			GuildID: m.GuildID,
			UserID:  m.User.ID,
			Action:  models.ActionRoleRemoved,
			Details: map[string]any{"roleId": roleID},
		})
	}

	if m.Nick != m.BeforeUpdate.Nick {
		b.audit.Append(ctx, store.Entry{
			GuildID: m.GuildID,
			UserID:  m.User.ID,
			Action:  models.ActionNicknameChanged,
			Details: map[string]any{"before": m.BeforeUpdate.Nick, "after": m.Nick},
		})
	}
}

// diffRoles returns the role ids present only in after (added) and only in
// before (removed).
func diffRoles(before, after []string) (added, removed []string) {
	prev := make(map[string]bool, len(before))
	for _, id := range before {
		prev[id] = true
	}
	next := make(map[string]bool, len(after))
	for _, id := range after {
		next[id] = true
		if !prev[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !next[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
