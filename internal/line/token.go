package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/step63r/ticket-bot-backend/internal/params"
	"github.com/step63r/ticket-bot-backend/internal/store"
)

// DefaultAuthURL is the LINE client-credentials token endpoint.
const DefaultAuthURL = "https://api.line.me/v2/oauth/accessToken"

// safetyMargin is subtracted from the provider-declared lifetime so a token
// is never used right at its expiry.
const safetyMargin = 30 * time.Second

// TokenCache is the subset of the store the token manager needs.
type TokenCache interface {
	GetToken() (store.CachedToken, error)
	PutToken(tok store.CachedToken) error
}

// TokenSource returns a valid channel access token, refreshing through the
// LINE OAuth endpoint when the cached one is missing or expired. The cache
// is shared and unlocked: two concurrent refreshes both produce valid
// tokens and the last write wins.
type TokenSource struct {
	authURL string
	cache   TokenCache
	params  params.Source
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time
}

func NewTokenSource(authURL string, cache TokenCache, src params.Source, log zerolog.Logger) *TokenSource {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	return &TokenSource{
		authURL: authURL,
		cache:   cache,
		params:  src,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "token").Logger(),
		now:     time.Now,
	}
}

// AccessToken returns the cached token when still valid, otherwise fetches
// and caches a fresh one. Auth provider failure is fatal to the caller.
func (t *TokenSource) AccessToken(ctx context.Context) (string, error) {
	tok, err := t.cache.GetToken()
	if err == nil && tok.ExpiresAt > t.now().Unix() {
		t.log.Debug().Msg("using cached token")
		return tok.AccessToken, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("read token cache: %w", err)
	}
	return t.refresh(ctx)
}

func (t *TokenSource) refresh(ctx context.Context) (string, error) {
	channelID, err := t.params.Get(ctx, params.ChannelID)
	if err != nil {
		return "", err
	}
	channelSecret, err := t.params.Get(ctx, params.ChannelSecret)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", channelID)
	form.Set("client_secret", channelSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	tok := store.CachedToken{
		AccessToken: payload.AccessToken,
		ExpiresAt:   t.now().Unix() + payload.ExpiresIn - int64(safetyMargin.Seconds()),
	}
	if err := t.cache.PutToken(tok); err != nil {
		return "", fmt.Errorf("write token cache: %w", err)
	}
	t.log.Info().Int64("expires_at", tok.ExpiresAt).Msg("token refreshed")
	return tok.AccessToken, nil
}
