package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/step63r/ticket-bot-backend/internal/config"
)

const artistPage = `
<html><body>
	<a class="d-block" href="events/naniwa/123">イベント1</a>
	<a class="d-block">リンク切れ</a>
	<a class="other" href="events/naniwa/999">無関係</a>
</body></html>`

const eventPageMixed = `
<html><body>
	<div class="perform-list">
		<div class="lead">2025/5/1 18:00</div>
		<p>Tokyo Dome</p>
		<button class="btn">購入手続きへ</button>
	</div>
	<div class="perform-list">
		<div class="lead">2025/5/2 18:00</div>
		<p>Kyocera Dome</p>
	</div>
</body></html>`

const eventPageSoldOut = `
<html><body>
	<div class="perform-list">
		<div class="lead">2025/6/1 17:00</div>
		<p>Yokohama Arena</p>
	</div>
</body></html>`

const eventPageNoDate = `
<html><body>
	<div class="perform-list">
		<p>Somewhere</p>
		<button class="btn">購入手続きへ</button>
	</div>
</body></html>`

func newSite(t *testing.T, artistHTML, eventHTML string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events/artist/16", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(artistHTML))
	})
	mux.HandleFunc("/events/naniwa/123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(eventHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var naniwa = config.Performer{Key: "naniwa", SiteID: 16, DisplayName: "なにわ男子"}

func TestScrapePurchasableOnly(t *testing.T) {
	srv := newSite(t, artistPage, eventPageMixed)
	s := New(srv.URL, config.DefaultSelectors(), zerolog.Nop())

	entries, err := s.Scrape(context.Background(), naniwa)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "naniwa", entries[0].PerformerKey)
	assert.Equal(t, "2025/5/1 18:00", entries[0].Date)
	assert.Equal(t, "Tokyo Dome", entries[0].Venue)
	assert.Equal(t, srv.URL+"/events/naniwa/123", entries[0].EventURL)
}

func TestScrapeNothingPurchasable(t *testing.T) {
	srv := newSite(t, artistPage, eventPageSoldOut)
	s := New(srv.URL, config.DefaultSelectors(), zerolog.Nop())

	entries, err := s.Scrape(context.Background(), naniwa)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScrapeMissingDateFailsPass(t *testing.T) {
	srv := newSite(t, artistPage, eventPageNoDate)
	s := New(srv.URL, config.DefaultSelectors(), zerolog.Nop())

	_, err := s.Scrape(context.Background(), naniwa)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestScrapeBuyMarkerIsConfigurable(t *testing.T) {
	// the old site revision used btn-buy-ticket as the buy marker
	oldEvent := `
<html><body>
	<div class="perform-list">
		<div class="lead">2025/5/1 18:00</div>
		<p>Tokyo Dome</p>
		<button class="btn-buy-ticket">購入手続きへ</button>
	</div>
</body></html>`
	srv := newSite(t, artistPage, oldEvent)

	sel := config.DefaultSelectors()
	sel.BuyButton = "button.btn-buy-ticket"
	s := New(srv.URL, sel, zerolog.Nop())
	entries, err := s.Scrape(context.Background(), naniwa)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// with the current marker nothing matches the old markup
	s = New(srv.URL, config.DefaultSelectors(), zerolog.Nop())
	entries, err = s.Scrape(context.Background(), naniwa)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScrapeLinksWithoutHrefSkipped(t *testing.T) {
	hreflessOnly := `<html><body><a class="d-block">no href</a></body></html>`
	srv := newSite(t, hreflessOnly, eventPageMixed)
	s := New(srv.URL, config.DefaultSelectors(), zerolog.Nop())

	entries, err := s.Scrape(context.Background(), naniwa)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScrapeArtistPageFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New(srv.URL, config.DefaultSelectors(), zerolog.Nop())
	_, err := s.Scrape(context.Background(), naniwa)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
