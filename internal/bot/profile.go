package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/kongklang/internal/names"
)

// memberSource is the part of *discordgo.Session the name lookup needs.
type memberSource interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// ProfileLookup resolves Discord display names for the names.Resolver.
// Guilds map to groups; Discord has no rooms, so room lookups use the user profile.
type ProfileLookup struct {
	session memberSource
}

var _ names.ProfileLookup = (*ProfileLookup)(nil)

func NewProfileLookup(session *discordgo.Session) *ProfileLookup {
	return &ProfileLookup{session: session}
}

func (p *ProfileLookup) GroupMemberName(ctx context.Context, guildID, userID string) (string, error) {
	m, err := p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if m.Nick != "" {
		return m.Nick, nil
	}
	return userName(m.User), nil
}

func (p *ProfileLookup) RoomMemberName(ctx context.Context, _, userID string) (string, error) {
	return p.ProfileName(ctx, userID)
}

func (p *ProfileLookup) ProfileName(ctx context.Context, userID string) (string, error) {
	u, err := p.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return userName(u), nil
}

func userName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
