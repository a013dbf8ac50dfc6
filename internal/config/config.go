package config

import "os"

// Performer is one monitored artist. Key is the stable internal identifier
// used for subscriptions, SiteID the numeric id relief-ticket.jp uses in its
// event listing URLs.
type Performer struct {
	Key         string
	SiteID      int
	DisplayName string
}

// Performers is the static table of monitored artists.
var Performers = []Performer{
	{Key: "timelesz", SiteID: 11, DisplayName: "timelesz"},
	{Key: "naniwa", SiteID: 16, DisplayName: "なにわ男子"},
	{Key: "yokoyama", SiteID: 14, DisplayName: "横山裕"},
	{Key: "jr", SiteID: 15, DisplayName: "ジュニア"},
	{Key: "news", SiteID: 24, DisplayName: "NEWS"},
	{Key: "abc-z", SiteID: 30, DisplayName: "A.B.C-Z"},
	{Key: "snowman", SiteID: 31, DisplayName: "Snow Man"},
}

// FindPerformer looks a performer up by key.
func FindPerformer(key string) (Performer, bool) {
	for _, p := range Performers {
		if p.Key == key {
			return p, true
		}
	}
	return Performer{}, false
}

// DisplayName returns the display name for a performer key, falling back to
// the key itself for unknown values (old subscriptions may reference
// performers that were later removed from the table).
func DisplayName(key string) string {
	if p, ok := FindPerformer(key); ok {
		return p.DisplayName
	}
	return key
}

// Selectors is the set of structural CSS selectors that make up the scrape
// contract with relief-ticket.jp. The buy-button marker has already changed
// once upstream (btn-buy-ticket → btn), so all of these are overridable.
type Selectors struct {
	EventLink    string // anchors on the artist page pointing at event pages
	PerformBlock string // one concert date/venue unit on an event page
	Date         string // date text inside a performance block
	Venue        string // venue text inside a performance block
	BuyButton    string // present iff the performance is purchasable
}

// DefaultSelectors matches the site structure as of the current revision.
func DefaultSelectors() Selectors {
	return Selectors{
		EventLink:    "a.d-block",
		PerformBlock: "div.perform-list",
		Date:         "div.lead",
		Venue:        "p",
		BuyButton:    "button.btn",
	}
}

const defaultBaseURL = "https://relief-ticket.jp"

// BaseURL returns the scrape target root, overridable via TICKET_BASE_URL.
func BaseURL() string {
	if v := os.Getenv("TICKET_BASE_URL"); v != "" {
		return v
	}
	return defaultBaseURL
}

// SelectorsFromEnv returns DefaultSelectors with any per-selector override
// applied from the environment.
func SelectorsFromEnv() Selectors {
	sel := DefaultSelectors()
	if v := os.Getenv("TICKET_SELECTOR_EVENT_LINK"); v != "" {
		sel.EventLink = v
	}
	if v := os.Getenv("TICKET_SELECTOR_PERFORM_BLOCK"); v != "" {
		sel.PerformBlock = v
	}
	if v := os.Getenv("TICKET_SELECTOR_DATE"); v != "" {
		sel.Date = v
	}
	if v := os.Getenv("TICKET_SELECTOR_VENUE"); v != "" {
		sel.Venue = v
	}
	if v := os.Getenv("TICKET_SELECTOR_BUY_BUTTON"); v != "" {
		sel.BuyButton = v
	}
	return sel
}
