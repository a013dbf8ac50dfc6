// Command check runs one scrape-and-notify pass. It is invoked by an
// external scheduler or trigger, prints the structured pass result as JSON,
// and exits 0 on success / 1 on failure.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/step63r/ticket-bot-backend/internal/config"
	"github.com/step63r/ticket-bot-backend/internal/line"
	"github.com/step63r/ticket-bot-backend/internal/params"
	"github.com/step63r/ticket-bot-backend/internal/pipeline"
	"github.com/step63r/ticket-bot-backend/internal/scraper"
	"github.com/step63r/ticket-bot-backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "check").Logger()
	ctx := context.Background()

	src, err := params.FromEnv(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("parameter source init failed")
	}

	st, err := store.Open(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer st.Close()

	tokens := line.NewTokenSource(os.Getenv("LINE_AUTH_URL"), st, src, log)
	client := line.NewClient(os.Getenv("LINE_API_URL"), tokens, log)

	p := &pipeline.Pipeline{
		Performers: config.Performers,
		Scraper:    scraper.New(config.BaseURL(), config.SelectorsFromEnv(), log),
		Subs:       st,
		Notifier:   client,
		Tokens:     tokens,
		Params:     src,
		Log:        log,
	}

	outcome, err := p.Run(ctx)
	if err != nil {
		// failure of the admin escalation itself, no further fallback
		log.Fatal().Err(err).Msg("admin escalation failed")
	}

	fmt.Printf("%d %s\n", outcome.StatusCode(), outcome.Body())
	if outcome.Err != nil {
		os.Exit(1)
	}
}
