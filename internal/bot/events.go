package bot

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/kongklang/internal/commands"
	"github.com/susu3304/kongklang/internal/names"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	slog.Info("discord connected", "user", event.User.Username, "guilds", len(event.Guilds))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author == nil || m.Author.Bot {
		return
	}
	b.handleMessage(s, m.Message)
}

// handleMessage answers recognized commands only; ordinary channel chatter
// gets no help text. Handling and sending each get their own eventTimeout.
func (b *Bot) handleMessage(s messageSender, m *discordgo.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), b.eventTimeout)
	defer cancel()

	reply, err := b.dispatcher.Handle(ctx, messageFor(m))
	if err != nil {
		slog.Warn("discord command failed", "channel_id", m.ChannelID, "error", err)
	}
	if !reply.Recognized {
		return
	}

	sendCtx, cancelSend := context.WithTimeout(context.Background(), b.eventTimeout)
	defer cancelSend()
	if err := sendAll(sendCtx, s, m.ChannelID, reply.Texts); err != nil {
		slog.Error("failed to send discord reply", "channel_id", m.ChannelID, "error", err)
	}
}

// messageFor maps a Discord message onto the ledger's conversation model:
// the channel is the conversation and the guild decides member lookups.
func messageFor(m *discordgo.Message) commands.Message {
	src := names.Source{Type: names.SourceUser, UserID: m.Author.ID}
	if m.GuildID != "" {
		src = names.Source{Type: names.SourceGroup, GroupID: m.GuildID, UserID: m.Author.ID}
	}
	return commands.Message{
		Source:         src,
		ConversationID: m.ChannelID,
		AuthorID:       m.Author.ID,
		Text:           m.Content,
	}
}
