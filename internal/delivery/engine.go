package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/digamber-in/digamber-bot/internal/metrics"
	"github.com/digamber-in/digamber-bot/internal/models"
	"github.com/digamber-in/digamber-bot/internal/store"
)

var (
	// ErrGuildNotFound is returned when the target guild cannot be resolved.
	ErrGuildNotFound = errors.New("guild not found")

	// ErrChannelNotFound is returned when the target channel cannot be
	// resolved or belongs to a different guild.
	ErrChannelNotFound = errors.New("channel not found")
)

// Messenger is the slice of the Discord session the engine needs. Satisfied by
// *discordgo.Session; faked in tests.
type Messenger interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Engine loads a template, renders it, and dispatches it to a channel.
type Engine struct {
	session   Messenger
	templates *store.TemplateStore
	audit     *store.AuditStore
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewEngine wires the delivery engine.
func NewEngine(session Messenger, templates *store.TemplateStore, audit *store.AuditStore, m *metrics.Metrics, log zerolog.Logger) *Engine {
	return &Engine{
		session:   session,
		templates: templates,
		audit:     audit,
		metrics:   m,
		log:       log.With().Str("component", "delivery").Logger(),
	}
}

// SendResult identifies the dispatched message.
type SendResult struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
}

// Send delivers the template to the channel. Guild and channel are resolved
// through Discord before dispatch; a platform rejection (missing permission,
// deleted channel) surfaces to the caller, it is not retried.
func (e *Engine) Send(ctx context.Context, templateID, guildID, channelID, actorID, ip string) (*SendResult, error) {
	tmpl, err := e.templates.Get(ctx, templateID, guildID)
	if err != nil {
		return nil, err
	}

	if _, err := e.session.Guild(guildID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}
	channel, err := e.session.Channel(channelID)
	if err != nil || channel.GuildID != guildID {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	msg, err := e.session.ChannelMessageSendComplex(channelID, Render(tmpl))
	if err != nil {
		return nil, fmt.Errorf("send template %s: %w", templateID, err)
	}

	e.audit.Append(ctx, store.Entry{
		GuildID: guildID,
		UserID:  actorID,
		Action:  models.ActionMessageSent,
		Details: map[string]any{
			"templateId": templateID,
			"channelId":  channelID,
			"messageId":  msg.ID,
		},
		IPAddress: ip,
	})
	e.metrics.MessagesSent.Inc()

	e.log.Info().
		Str("template_id", templateID).
		Str("channel_id", channelID).
		Str("message_id", msg.ID).
		Msg("template sent")

	return &SendResult{MessageID: msg.ID, ChannelID: channelID}, nil
}
