package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/digamber-in/digamber-bot/internal/store"
)

// moderatorPermissions are the permission bits that mark a member as a
// moderator even without a configured moderator role.
const moderatorPermissions = discordgo.PermissionKickMembers |
	discordgo.PermissionBanMembers |
	discordgo.PermissionManageMessages |
	discordgo.PermissionModerateMembers

// Roles answers authorization questions about guild members by combining
// Discord permission bits with the per-guild configured role lists.
type Roles struct {
	session *discordgo.Session
	configs *store.GuildConfigStore
}

// IsAdmin reports whether the member owns the guild, carries the
// Administrator permission, or holds a configured admin role.
func (r *Roles) IsAdmin(ctx context.Context, guildID, userID string) (bool, error) {
	guild, member, err := r.lookup(guildID, userID)
	if err != nil {
		return false, err
	}
	if guild.OwnerID == userID {
		return true, nil
	}
	perms := r.memberPermissions(guild, member)
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}

	cfg, err := r.configs.Get(ctx, guildID)
	if err != nil {
		return false, err
	}
	return hasAnyRole(member.Roles, cfg.AdminRoles), nil
}

// IsModerator reports whether the member is an admin, carries moderation
// permission bits, or holds a configured moderator role.
func (r *Roles) IsModerator(ctx context.Context, guildID, userID string) (bool, error) {
	admin, err := r.IsAdmin(ctx, guildID, userID)
	if err != nil || admin {
		return admin, err
	}

	guild, member, err := r.lookup(guildID, userID)
	if err != nil {
		return false, err
	}
	if r.memberPermissions(guild, member)&moderatorPermissions != 0 {
		return true, nil
	}

	cfg, err := r.configs.Get(ctx, guildID)
	if err != nil {
		return false, err
	}
	return hasAnyRole(member.Roles, cfg.ModeratorRoles), nil
}

// lookup prefers the state cache and falls back to the REST API.
func (r *Roles) lookup(guildID, userID string) (*discordgo.Guild, *discordgo.Member, error) {
	guild, err := r.session.State.Guild(guildID)
	if err != nil {
		guild, err = r.session.Guild(guildID)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
		}
	}
	member, err := r.session.State.Member(guildID, userID)
	if err != nil {
		member, err = r.session.GuildMember(guildID, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch member %s in guild %s: %w", userID, guildID, err)
		}
	}
	return guild, member, nil
}

// memberPermissions ORs the guild-level permissions of the member's roles,
// including @everyone.
func (r *Roles) memberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	var perms int64
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			perms |= role.Permissions
			continue
		}
		for _, id := range member.Roles {
			if id == role.ID {
				perms |= role.Permissions
				break
			}
		}
	}
	return perms
}

func hasAnyRole(memberRoles, wanted []string) bool {
	for _, w := range wanted {
		for _, have := range memberRoles {
			if have == w {
				return true
			}
		}
	}
	return false
}
