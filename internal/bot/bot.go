// Package bot runs the ledger commands over Discord channel messages.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/kongklang/internal/commands"
)

// Dispatcher runs one chat message; *commands.Dispatcher implements it.
type Dispatcher interface {
	Handle(ctx context.Context, msg commands.Message) (commands.Reply, error)
}

type Bot struct {
	session      *discordgo.Session
	dispatcher   Dispatcher
	eventTimeout time.Duration
}

// NewSession opens nothing yet; it only prepares the gateway session so the
// caller can build a Discord name lookup before New.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return session, nil
}

func New(session *discordgo.Session, dispatcher Dispatcher, eventTimeout time.Duration) *Bot {
	if eventTimeout <= 0 {
		eventTimeout = 10 * time.Second
	}
	bot := &Bot{
		session:      session,
		dispatcher:   dispatcher,
		eventTimeout: eventTimeout,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)

	return bot
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	slog.Info("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}
