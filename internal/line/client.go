package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAPIURL is the LINE Messaging API root.
const DefaultAPIURL = "https://api.line.me"

// Tokens yields a valid channel access token for each outbound call.
type Tokens interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client sends messages through the LINE Messaging API. Delivery failures
// are surfaced to the caller, never retried.
type Client struct {
	apiURL string
	tokens Tokens
	client *http.Client
	log    zerolog.Logger
}

func NewClient(apiURL string, tokens Tokens, log zerolog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		tokens: tokens,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "line").Logger(),
	}
}

// Push sends messages to a single user.
func (c *Client) Push(ctx context.Context, userID string, msgs ...Message) error {
	body := struct {
		To       string    `json:"to"`
		Messages []Message `json:"messages"`
	}{To: userID, Messages: msgs}
	return c.post(ctx, "/v2/bot/message/push", body)
}

// Multicast sends messages to every user in one API call.
func (c *Client) Multicast(ctx context.Context, userIDs []string, msgs ...Message) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("multicast requires at least one recipient")
	}
	body := struct {
		To       []string  `json:"to"`
		Messages []Message `json:"messages"`
	}{To: userIDs, Messages: msgs}
	return c.post(ctx, "/v2/bot/message/multicast", body)
}

// Reply answers a webhook event using its reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...Message) error {
	body := struct {
		ReplyToken string    `json:"replyToken"`
		Messages   []Message `json:"messages"`
	}{ReplyToken: replyToken, Messages: msgs}
	return c.post(ctx, "/v2/bot/message/reply", body)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal message body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(respBody))
	}
	c.log.Debug().Str("path", path).Msg("message delivered")
	return nil
}
