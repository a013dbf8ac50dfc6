package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/step63r/ticket-bot-backend/internal/config"
)

// Entry is one purchasable performance found on an event page.
type Entry struct {
	PerformerKey string
	Date         string
	Venue        string
	EventURL     string
}

// ErrParse marks HTML that is missing an expected structural element.
var ErrParse = errors.New("unexpected page structure")

// Scraper walks the artist → event → performance hierarchy of the ticket
// site and extracts purchasable performances.
type Scraper struct {
	baseURL string
	sel     config.Selectors
	client  *http.Client
	log     zerolog.Logger
}

func New(baseURL string, sel config.Selectors, log zerolog.Logger) *Scraper {
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		sel:     sel,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "scraper").Logger(),
	}
}

// Scrape fetches the performer's event listing and every linked event page,
// returning one Entry per purchasable performance block. The walk is
// sequential; a block missing its date or venue fails the whole pass for
// this performer.
func (s *Scraper) Scrape(ctx context.Context, p config.Performer) ([]Entry, error) {
	listURL := fmt.Sprintf("%s/events/artist/%d", s.baseURL, p.SiteID)
	listDoc, err := s.fetch(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch artist page for %s: %w", p.Key, err)
	}

	var entries []Entry
	var eventURLs []string
	listDoc.Find(s.sel.EventLink).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		eventURLs = append(eventURLs, href)
	})
	s.log.Debug().Str("performer", p.Key).Int("events", len(eventURLs)).Msg("artist page parsed")

	for _, href := range eventURLs {
		eventURL := s.baseURL + "/" + strings.TrimLeft(href, "/")
		doc, err := s.fetch(ctx, eventURL)
		if err != nil {
			return nil, fmt.Errorf("fetch event page %s: %w", eventURL, err)
		}

		var blockErr error
		doc.Find(s.sel.PerformBlock).EachWithBreak(func(i int, block *goquery.Selection) bool {
			date := block.Find(s.sel.Date).First()
			if date.Length() == 0 {
				blockErr = fmt.Errorf("%w: performance block %d on %s has no date element", ErrParse, i, eventURL)
				return false
			}
			venue := block.Find(s.sel.Venue).First()
			if venue.Length() == 0 {
				blockErr = fmt.Errorf("%w: performance block %d on %s has no venue element", ErrParse, i, eventURL)
				return false
			}
			// purchasable iff the buy button is rendered at all
			if block.Find(s.sel.BuyButton).Length() == 0 {
				return true
			}
			e := Entry{
				PerformerKey: p.Key,
				Date:         strings.TrimSpace(date.Text()),
				Venue:        strings.TrimSpace(venue.Text()),
				EventURL:     eventURL,
			}
			s.log.Info().
				Str("performer", p.Key).
				Str("date", e.Date).
				Str("venue", e.Venue).
				Str("url", e.EventURL).
				Msg("purchasable performance found")
			entries = append(entries, e)
			return true
		})
		if blockErr != nil {
			return nil, blockErr
		}
	}

	return entries, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, url, string(body))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML from %s: %w", url, err)
	}
	return doc, nil
}
