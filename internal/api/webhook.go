package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/susu3304/kongklang/internal/commands"
	"github.com/susu3304/kongklang/internal/line"
)

// handleLineWebhook verifies the batch and answers 200 at once; each text
// event is then handled in its own goroutine under eventTimeout. The reply
// gets a fresh eventTimeout of its own.
func (a *API) handleLineWebhook(w http.ResponseWriter, r *http.Request) {
	req, err := line.ParseRequest(a.channelSecret, r)
	if errors.Is(err, line.ErrInvalidSignature) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	for _, ev := range req.Events {
		a.metrics.ObserveWebhookEvent("line", ev.Type)
		if !ev.IsText() {
			continue
		}
		id := ev.WebhookEventID
		if id == "" {
			id = uuid.NewString()
		}
		a.inflight.Add(1)
		go func(ev line.Event, id string) {
			defer a.inflight.Done()
			a.handleLineEvent(ev, id)
		}(ev, id)
	}

	w.WriteHeader(http.StatusOK)
}

func (a *API) handleLineEvent(ev line.Event, eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.eventTimeout)
	defer cancel()

	logger := slog.With("event_id", eventID, "conversation_id", ev.ConversationID())

	reply, err := a.dispatcher.Handle(ctx, commands.Message{
		Source:         ev.NameSource(),
		ConversationID: ev.ConversationID(),
		AuthorID:       ev.Source.UserID,
		Text:           ev.Message.Text,
	})
	if err != nil {
		logger.Warn("event failed, replying with error text", "error", err)
	}
	if ev.ReplyToken == "" || len(reply.Texts) == 0 {
		return
	}

	replyCtx, cancelReply := context.WithTimeout(context.Background(), a.eventTimeout)
	defer cancelReply()
	if err := a.replier.Reply(replyCtx, ev.ReplyToken, reply.Texts); err != nil {
		logger.Error("failed to send reply", "error", err)
		return
	}
	logger.Debug("replied", "recognized", reply.Recognized, "messages", len(reply.Texts))
}
