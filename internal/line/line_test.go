package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply(t *testing.T) {
	var got replyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/bot/message/reply", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	httpClient, err := NewHTTPClient(context.Background(), Credentials{Token: "secret-token"})
	require.NoError(t, err)
	c := NewClient(httpClient, WithBaseURL(srv.URL))

	texts := []string{"1", "2", "3", "4", "5", "6"}
	require.NoError(t, c.Reply(context.Background(), "rt-1", texts))

	assert.Equal(t, "rt-1", got.ReplyToken)
	require.Len(t, got.Messages, MaxReplyMessages)
	assert.Equal(t, TextMessage{Type: "text", Text: "1"}, got.Messages[0])
}

func TestProfileLookups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := map[string]string{
			"/v2/bot/group/G1/member/U1": "In Group",
			"/v2/bot/room/R1/member/U1":  "In Room",
			"/v2/bot/profile/U1":         "Direct",
		}[r.URL.Path]
		if name == "" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not found"}`))
			return
		}
		json.NewEncoder(w).Encode(Profile{UserID: "U1", DisplayName: name})
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), WithBaseURL(srv.URL+"/"))
	ctx := context.Background()

	name, err := c.GroupMemberName(ctx, "G1", "U1")
	require.NoError(t, err)
	assert.Equal(t, "In Group", name)

	name, err = c.RoomMemberName(ctx, "R1", "U1")
	require.NoError(t, err)
	assert.Equal(t, "In Room", name)

	name, err = c.ProfileName(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "Direct", name)

	_, err = c.ProfileName(ctx, "U2")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not found", apiErr.Message)
}

func TestClientCredentialsToken(t *testing.T) {
	tokenCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/oauth/accessToken":
			tokenCalls++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "1234", r.PostForm.Get("client_id"))
			assert.Equal(t, "shh", r.PostForm.Get("client_secret"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"issued","expires_in":2592000,"token_type":"Bearer"}`))
		case "/v2/bot/profile/U1":
			assert.Equal(t, "Bearer issued", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(Profile{UserID: "U1", DisplayName: "Nok"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	httpClient, err := NewHTTPClient(context.Background(), Credentials{ChannelID: "1234", ChannelSecret: "shh", BaseURL: srv.URL})
	require.NoError(t, err)
	c := NewClient(httpClient, WithBaseURL(srv.URL))

	for i := 0; i < 2; i++ {
		name, err := c.ProfileName(context.Background(), "U1")
		require.NoError(t, err)
		assert.Equal(t, "Nok", name)
	}
	assert.Equal(t, 1, tokenCalls)
}

func TestNewHTTPClientNeedsCredentials(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), Credentials{ChannelID: "1234"})
	assert.Error(t, err)
}

func TestParseRequest(t *testing.T) {
	body := []byte(`{"destination":"Ubot","events":[
		{"type":"message","replyToken":"rt","timestamp":1700000000000,
		 "source":{"type":"group","groupId":"G1","userId":"U1"},
		 "message":{"id":"m1","type":"text","text":"กลาง100"}},
		{"type":"follow","source":{"type":"user","userId":"U2"}}
	]}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("channel-secret", body))

	got, err := ParseRequest("channel-secret", req)
	require.NoError(t, err)
	require.Len(t, got.Events, 2)

	ev := got.Events[0]
	assert.True(t, ev.IsText())
	assert.Equal(t, "G1", ev.ConversationID())
	assert.Equal(t, "กลาง100", ev.Message.Text)
	assert.Equal(t, "G1", ev.NameSource().GroupID)

	assert.False(t, got.Events[1].IsText())
	assert.Equal(t, "U2", got.Events[1].ConversationID())
}

func TestParseRequestRejectsBadSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	for _, sig := range []string{"", "not base64!", Sign("other-secret", body)} {
		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
		req.Header.Set(SignatureHeader, sig)

		_, err := ParseRequest("channel-secret", req)
		assert.ErrorIs(t, err, ErrInvalidSignature, sig)
	}
}

func TestConversationIDPrefersRoomOverUser(t *testing.T) {
	ev := Event{Source: EventSource{Type: "room", RoomID: "R1", UserID: "U1"}}
	assert.Equal(t, "R1", ev.ConversationID())
}
