// Package delivery turns stored templates into Discord message payloads and
// dispatches them. It enforces no premium gating; that belongs to the callers.
package delivery

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/digamber-in/digamber-bot/internal/models"
)

// Render maps a template to a sendable Discord payload. Embeds and component
// rows are mapped one-to-one with their stored order preserved; unknown
// component type codes are dropped silently so a stored template always
// renders to something sendable.
func Render(tmpl *models.Template) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{Content: tmpl.Content}

	for _, spec := range tmpl.Embeds {
		msg.Embeds = append(msg.Embeds, renderEmbed(spec))
	}
	for _, row := range tmpl.Components {
		if rendered := renderRow(row); rendered != nil {
			msg.Components = append(msg.Components, rendered)
		}
	}

	return msg
}

func renderEmbed(spec models.EmbedSpec) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       spec.Title,
		Description: spec.Description,
		Color:       spec.Color,
	}

	for _, f := range spec.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if spec.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: spec.Thumbnail}
	}
	if spec.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: spec.Image}
	}
	if spec.Footer != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: spec.Footer.Text, IconURL: spec.Footer.IconURL}
	}
	if spec.Timestamp {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return embed
}

func renderRow(row models.ComponentRow) discordgo.MessageComponent {
	actions := discordgo.ActionsRow{}

	for _, c := range row.Components {
		switch c.Type {
		case models.ComponentTypeButton:
			actions.Components = append(actions.Components, renderButton(c))
		case models.ComponentTypeSelectMenu:
			actions.Components = append(actions.Components, renderSelectMenu(c))
		default:
			// Unrecognized type code: skip it, keep the rest of the row.
		}
	}

	if len(actions.Components) == 0 {
		return nil
	}
	return actions
}

func renderButton(c models.Component) discordgo.Button {
	btn := discordgo.Button{
		Label: c.Label,
		Style: discordgo.ButtonStyle(c.Style),
	}
	if btn.Label == "" {
		btn.Label = "Button"
	}
	if btn.Style == 0 {
		btn.Style = discordgo.PrimaryButton
	}
	// Link buttons carry a URL instead of a custom id; Discord rejects both.
	if c.URL != "" {
		btn.Style = discordgo.LinkButton
		btn.URL = c.URL
	} else {
		btn.CustomID = c.CustomID
	}
	return btn
}

func renderSelectMenu(c models.Component) discordgo.SelectMenu {
	minValues := c.MinValues
	if minValues == 0 {
		minValues = 1
	}
	maxValues := c.MaxValues
	if maxValues == 0 {
		maxValues = 1
	}

	menu := discordgo.SelectMenu{
		CustomID:    c.CustomID,
		Placeholder: c.Placeholder,
		MinValues:   &minValues,
		MaxValues:   maxValues,
	}
	if menu.Placeholder == "" {
		menu.Placeholder = "Select an option"
	}
	for _, opt := range c.Options {
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label:       opt.Label,
			Value:       opt.Value,
			Description: opt.Description,
		})
	}
	return menu
}
