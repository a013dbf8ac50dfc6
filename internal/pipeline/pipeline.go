// Package pipeline runs one scrape-and-notify pass: scrape every configured
// performer, resolve subscribers, and multicast one notification per
// performer with availability.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/step63r/ticket-bot-backend/internal/config"
	"github.com/step63r/ticket-bot-backend/internal/line"
	"github.com/step63r/ticket-bot-backend/internal/messages"
	"github.com/step63r/ticket-bot-backend/internal/params"
	"github.com/step63r/ticket-bot-backend/internal/scraper"
	"github.com/step63r/ticket-bot-backend/internal/store"
)

// defaultWorkers bounds the performer fan-out so the site is not hammered.
const defaultWorkers = 3

type Scraper interface {
	Scrape(ctx context.Context, p config.Performer) ([]scraper.Entry, error)
}

type Subscriptions interface {
	ListByPerformer(performerKey string) ([]store.Subscription, error)
}

type Notifier interface {
	Push(ctx context.Context, userID string, msgs ...line.Message) error
	Multicast(ctx context.Context, userIDs []string, msgs ...line.Message) error
}

// Pipeline wires the pass together. All collaborators are injected.
type Pipeline struct {
	Performers []config.Performer
	Scraper    Scraper
	Subs       Subscriptions
	Notifier   Notifier
	Tokens     line.Tokens
	Params     params.Source
	Log        zerolog.Logger
	Workers    int
}

// Outcome is the two-phase pass result. Err is nil on success; on failure
// AdminNotified records whether the escalation push went through.
type Outcome struct {
	Err           error
	AdminNotified bool
}

// StatusCode maps the outcome onto the trigger's HTTP-style exit contract.
func (o Outcome) StatusCode() int {
	if o.Err != nil {
		return 500
	}
	return 200
}

// Body renders the JSON body of the exit contract.
func (o Outcome) Body() []byte {
	var b []byte
	if o.Err != nil {
		b, _ = json.Marshal(map[string]string{"error": o.Err.Error()})
	} else {
		b, _ = json.Marshal(map[string]string{"message": "check completed"})
	}
	return b
}

// Run executes one pass. The returned error is non-nil only when the pass
// failed AND the admin escalation itself failed; that error is fatal to the
// caller with no further fallback.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	// acquire the channel credential once up front, shared by the whole pass
	if _, err := p.Tokens.AccessToken(ctx); err != nil {
		return p.fail(ctx, err)
	}

	results, err := p.scrapeAll(ctx)
	if err != nil {
		return p.fail(ctx, err)
	}

	for i, performer := range p.Performers {
		entries := results[i]
		if len(entries) == 0 {
			p.Log.Info().Str("performer", performer.Key).Msg("no purchasable tickets")
			continue
		}
		subs, err := p.Subs.ListByPerformer(performer.Key)
		if err != nil {
			return p.fail(ctx, fmt.Errorf("list subscribers for %s: %w", performer.Key, err))
		}
		if len(subs) == 0 {
			p.Log.Info().Str("performer", performer.Key).Msg("no subscribers registered")
			continue
		}
		userIDs := make([]string, len(subs))
		for j, s := range subs {
			userIDs[j] = s.UserID
		}
		text := formatNotification(performer.DisplayName, entries)
		if err := p.Notifier.Multicast(ctx, userIDs, line.TextMessage(text)); err != nil {
			return p.fail(ctx, fmt.Errorf("notify subscribers for %s: %w", performer.Key, err))
		}
		p.Log.Info().
			Str("performer", performer.Key).
			Int("entries", len(entries)).
			Int("recipients", len(userIDs)).
			Msg("notification sent")
	}

	return Outcome{}, nil
}

// scrapeAll fans performers out over a bounded worker pool. The first error
// cancels the remaining performers; results keep performer order.
func (p *Pipeline) scrapeAll(ctx context.Context) ([][]scraper.Entry, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	results := make([][]scraper.Entry, len(p.Performers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, performer := range p.Performers {
		g.Go(func() error {
			entries, err := p.Scraper.Scrape(gctx, performer)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fail escalates the pass failure to the admin user. If the escalation
// itself fails, that error is returned alongside the outcome and propagates
// uncaught.
func (p *Pipeline) fail(ctx context.Context, cause error) (Outcome, error) {
	p.Log.Error().Err(cause).Msg("pass failed")
	adminID, err := p.Params.Get(ctx, params.AdminUserID)
	if err != nil {
		return Outcome{Err: cause}, fmt.Errorf("notify admin: %w", err)
	}
	if err := p.Notifier.Push(ctx, adminID, line.TextMessage(messages.AdminAlert(cause))); err != nil {
		return Outcome{Err: cause}, fmt.Errorf("notify admin: %w", err)
	}
	return Outcome{Err: cause, AdminNotified: true}, nil
}

// formatNotification renders one performer's availability. Entries are
// concatenated without a separator, so the URL of one entry and the date of
// the next run together on a single line. That rendering is inherited and
// kept as is.
func formatNotification(displayName string, entries []scraper.Entry) string {
	var b strings.Builder
	b.WriteString(messages.TicketsFoundHeader(displayName))
	for _, e := range entries {
		fmt.Fprintf(&b, "日時：%s\n", e.Date)
		fmt.Fprintf(&b, "会場：%s\n", e.Venue)
		fmt.Fprintf(&b, "URL：%s", e.EventURL)
	}
	return b.String()
}
