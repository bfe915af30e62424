// Package bot owns the Discord-facing side: the gateway session, slash
// commands, and the member join/update handlers.
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/digamber-in/digamber-bot/internal/delivery"
	"github.com/digamber-in/digamber-bot/internal/metrics"
	"github.com/digamber-in/digamber-bot/internal/store"
)

// Bot bundles the gateway session with the stores the handlers need.
type Bot struct {
	Session *discordgo.Session
	Roles   *Roles

	premium      *store.PremiumStore
	templates    *store.TemplateStore
	configs      *store.GuildConfigStore
	audit        *store.AuditStore
	engine       *delivery.Engine
	metrics      *metrics.Metrics
	dashboardURL string
	log          zerolog.Logger
}

// Config wires a Bot.
type Config struct {
	Token        string
	Premium      *store.PremiumStore
	Templates    *store.TemplateStore
	Configs      *store.GuildConfigStore
	Audit        *store.AuditStore
	Metrics      *metrics.Metrics
	DashboardURL string
	Logger       zerolog.Logger
}

// New creates the session and registers handlers; the gateway connection is
// not opened until Start.
func New(cfg Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages

	b := &Bot{
		Session:      session,
		premium:      cfg.Premium,
		templates:    cfg.Templates,
		configs:      cfg.Configs,
		audit:        cfg.Audit,
		metrics:      cfg.Metrics,
		dashboardURL: cfg.DashboardURL,
		log:          cfg.Logger.With().Str("component", "bot").Logger(),
	}
	b.Roles = &Roles{session: session, configs: cfg.Configs}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildMemberAdd)
	session.AddHandler(b.onGuildMemberUpdate)
	session.AddHandler(b.onInteractionCreate)

	return b, nil
}

// SetEngine attaches the delivery engine. The engine speaks through the bot's
// session, so it is built after the bot and attached before Start.
func (b *Bot) SetEngine(e *delivery.Engine) {
	b.engine = e
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	if err := b.Session.Close(); err != nil {
		b.log.Error().Err(err).Msg("error closing session")
	}
}

// GuildCount reports how many guilds the session currently sees.
func (b *Bot) GuildCount() int {
	return len(b.Session.State.Guilds)
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	b.log.Info().
		Str("user", s.State.User.Username).
		Int("guilds", len(s.State.Guilds)).
		Msg("gateway ready")

	if err := b.registerCommands(); err != nil {
		b.log.Error().Err(err).Msg("failed to register slash commands")
	}
}
