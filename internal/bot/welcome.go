package bot

import "strings"

// FormatWelcome fills the welcome message placeholders: {user} becomes a
// mention of the new member, {server} the guild name.
func FormatWelcome(message, userID, guildName string) string {
	out := strings.ReplaceAll(message, "{user}", "<@"+userID+">")
	return strings.ReplaceAll(out, "{server}", guildName)
}
