package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/susu3304/kongklang/internal/names"
)

const SignatureHeader = "X-Line-Signature"

// maxBodyBytes bounds a webhook payload; LINE batches are far smaller.
const maxBodyBytes = 1 << 20

var ErrInvalidSignature = errors.New("invalid webhook signature")

type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type           string        `json:"type"`
	Mode           string        `json:"mode,omitempty"`
	WebhookEventID string        `json:"webhookEventId,omitempty"`
	ReplyToken     string        `json:"replyToken,omitempty"`
	Timestamp      int64         `json:"timestamp"`
	Source         EventSource   `json:"source"`
	Message        *EventMessage `json:"message,omitempty"`
}

type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// IsText reports whether the event is a text message that can carry a command.
func (e Event) IsText() bool {
	return e.Type == "message" && e.Message != nil && e.Message.Type == "text"
}

// ConversationID is the group, room or user the ledger is kept for.
func (e Event) ConversationID() string {
	switch {
	case e.Source.GroupID != "":
		return e.Source.GroupID
	case e.Source.RoomID != "":
		return e.Source.RoomID
	default:
		return e.Source.UserID
	}
}

func (e Event) NameSource() names.Source {
	return names.Source{
		Type:    names.SourceType(e.Source.Type),
		GroupID: e.Source.GroupID,
		RoomID:  e.Source.RoomID,
		UserID:  e.Source.UserID,
	}
}

// ValidateSignature checks the base64 HMAC-SHA256 of body keyed by the channel secret.
func ValidateSignature(channelSecret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign computes the signature header value for body.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ParseRequest reads and verifies a webhook call.
func ParseRequest(channelSecret string, r *http.Request) (*WebhookRequest, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}
	if !ValidateSignature(channelSecret, body, r.Header.Get(SignatureHeader)) {
		return nil, ErrInvalidSignature
	}
	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to decode webhook body: %w", err)
	}
	return &req, nil
}
