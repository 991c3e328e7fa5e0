package line

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials identify the channel. Token is a long-lived channel access
// token; when it is empty, ChannelID and ChannelSecret are exchanged for a
// short-lived token which oauth2 refreshes on expiry.
type Credentials struct {
	Token         string
	ChannelID     string
	ChannelSecret string
	BaseURL       string
}

// NewHTTPClient returns an http.Client that adds the channel access token to
// every request.
func NewHTTPClient(ctx context.Context, cred Credentials) (*http.Client, error) {
	if cred.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Token, TokenType: "Bearer"})
		return oauth2.NewClient(ctx, ts), nil
	}
	if cred.ChannelID == "" || cred.ChannelSecret == "" {
		return nil, errors.New("either a channel access token or channel id and secret are required")
	}

	base := cred.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	conf := &clientcredentials.Config{
		ClientID:     cred.ChannelID,
		ClientSecret: cred.ChannelSecret,
		TokenURL:     strings.TrimSuffix(base, "/") + "/v2/oauth/accessToken",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return conf.Client(ctx), nil
}
