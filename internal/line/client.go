// Package line talks to the LINE Messaging API: webhook decoding, replies
// and member profile lookups.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/susu3304/kongklang/internal/names"
)

const (
	DefaultBaseURL = "https://api.line.me"

	// MaxReplyMessages is how many messages one reply token accepts.
	MaxReplyMessages = 5

	userAgent = "kongklang/1.0 (+https://github.com/susu3304/kongklang)"
)

var _ names.ProfileLookup = (*Client)(nil)

// Client calls the Messaging API. Authentication is carried by the
// http.Client, see NewHTTPClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

func NewClient(httpClient *http.Client, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{httpClient: httpClient, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the platform.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("line API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("line API returned status %d: %s", e.StatusCode, e.Message)
}

type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

// Reply answers a webhook event with up to MaxReplyMessages text messages.
// Extra texts are dropped.
func (c *Client) Reply(ctx context.Context, replyToken string, texts []string) error {
	if len(texts) > MaxReplyMessages {
		texts = texts[:MaxReplyMessages]
	}
	msgs := make([]TextMessage, 0, len(texts))
	for _, t := range texts {
		msgs = append(msgs, TextMessage{Type: "text", Text: t})
	}
	return c.do(ctx, http.MethodPost, "/v2/bot/message/reply", replyRequest{ReplyToken: replyToken, Messages: msgs}, nil)
}

type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

func (c *Client) GroupMemberProfile(ctx context.Context, groupID, userID string) (*Profile, error) {
	var p Profile
	path := "/v2/bot/group/" + url.PathEscape(groupID) + "/member/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) RoomMemberProfile(ctx context.Context, roomID, userID string) (*Profile, error) {
	var p Profile
	path := "/v2/bot/room/" + url.PathEscape(roomID) + "/member/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Profile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/v2/bot/profile/"+url.PathEscape(userID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GroupMemberName(ctx context.Context, groupID, userID string) (string, error) {
	p, err := c.GroupMemberProfile(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}

func (c *Client) RoomMemberName(ctx context.Context, roomID, userID string) (string, error) {
	p, err := c.RoomMemberProfile(ctx, roomID, userID)
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}

func (c *Client) ProfileName(ctx context.Context, userID string) (string, error) {
	p, err := c.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
