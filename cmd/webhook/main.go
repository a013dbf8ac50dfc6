// Command webhook serves the LINE webhook that manages performer
// subscriptions.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/step63r/ticket-bot-backend/internal/config"
	"github.com/step63r/ticket-bot-backend/internal/line"
	"github.com/step63r/ticket-bot-backend/internal/params"
	"github.com/step63r/ticket-bot-backend/internal/store"
	"github.com/step63r/ticket-bot-backend/internal/web"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "webhook").Logger()
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

	h := &web.Handler{
		Store:      st,
		Sender:     client,
		Params:     src,
		Performers: config.Performers,
		Log:        log,
	}
	web.StartServer(h, log)
}
