package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Minimal session interface for sending channel messages.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// sendAll posts the chunks in order and stops at the first failure.
func sendAll(ctx context.Context, s messageSender, channelID string, texts []string) error {
	for _, text := range texts {
		if _, err := s.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}
