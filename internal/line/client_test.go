package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, error) { return string(s), nil }

type captured struct {
	path   string
	auth   string
	body   map[string]any
	status int
}

func newAPIServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got.body))
		if got.status != 0 {
			w.WriteHeader(got.status)
			w.Write([]byte(`{"message":"error"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPush(t *testing.T) {
	var got captured
	srv := newAPIServer(t, &got)
	c := NewClient(srv.URL, staticTokens("tok"), zerolog.Nop())

	err := c.Push(context.Background(), "U1", TextMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/push", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "U1", got.body["to"])
	msgs := got.body["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "text", msg["type"])
	assert.Equal(t, "hello", msg["text"])
}

func TestMulticast(t *testing.T) {
	var got captured
	srv := newAPIServer(t, &got)
	c := NewClient(srv.URL, staticTokens("tok"), zerolog.Nop())

	err := c.Multicast(context.Background(), []string{"U1", "U2"}, TextMessage("tickets"))
	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/multicast", got.path)
	assert.Equal(t, []any{"U1", "U2"}, got.body["to"])
}

func TestMulticastRejectsEmptyRecipients(t *testing.T) {
	c := NewClient("http://unused", staticTokens("tok"), zerolog.Nop())
	err := c.Multicast(context.Background(), nil, TextMessage("tickets"))
	require.Error(t, err)
}

func TestReply(t *testing.T) {
	var got captured
	srv := newAPIServer(t, &got)
	c := NewClient(srv.URL, staticTokens("tok"), zerolog.Nop())

	err := c.Reply(context.Background(), "reply-token-1", TextMessage("done"))
	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/reply", got.path)
	assert.Equal(t, "reply-token-1", got.body["replyToken"])
}

func TestDeliveryFailureSurfaced(t *testing.T) {
	got := captured{status: http.StatusTooManyRequests}
	srv := newAPIServer(t, &got)
	c := NewClient(srv.URL, staticTokens("tok"), zerolog.Nop())

	err := c.Push(context.Background(), "U1", TextMessage("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFlexMessageShape(t *testing.T) {
	var got captured
	srv := newAPIServer(t, &got)
	c := NewClient(srv.URL, staticTokens("tok"), zerolog.Nop())

	contents := json.RawMessage(`{"type":"bubble"}`)
	err := c.Push(context.Background(), "U1", FlexMessage("メニュー", contents))
	require.NoError(t, err)
	msg := got.body["messages"].([]any)[0].(map[string]any)
	assert.Equal(t, "flex", msg["type"])
	assert.Equal(t, "メニュー", msg["altText"])
	assert.Equal(t, map[string]any{"type": "bubble"}, msg["contents"])
}
