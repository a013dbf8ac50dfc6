// Package web serves the LINE webhook: follow/unfollow lifecycle, the
// performer menu, and postback subscription updates.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/step63r/ticket-bot-backend/internal/config"
	"github.com/step63r/ticket-bot-backend/internal/line"
	"github.com/step63r/ticket-bot-backend/internal/messages"
	"github.com/step63r/ticket-bot-backend/internal/params"
	"github.com/step63r/ticket-bot-backend/internal/store"
)

// Sender is the subset of the LINE client the webhook needs.
type Sender interface {
	Push(ctx context.Context, userID string, msgs ...line.Message) error
	Reply(ctx context.Context, replyToken string, msgs ...line.Message) error
}

type Handler struct {
	Store      store.Store
	Sender     Sender
	Params     params.Source
	Performers []config.Performer
	Log        zerolog.Logger
}

// Routes builds the webhook mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/line/webhook", h.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "time": "` + time.Now().Format(time.RFC3339) + `"}`))
	})
	return mux
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req line.WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for _, ev := range req.Events {
		if err := h.dispatch(r.Context(), ev); err != nil {
			h.Log.Error().Err(err).Str("event", ev.Type).Msg("webhook event failed")
			h.notifyAdmin(r.Context(), err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			body, _ := json.Marshal(map[string]string{"error": err.Error()})
			w.Write(body)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	body, _ := json.Marshal(map[string]string{"message": "events processed"})
	w.Write(body)
}

func (h *Handler) dispatch(ctx context.Context, ev line.Event) error {
	switch ev.Type {
	case "message":
		return h.handleMessage(ctx, ev)
	case "follow":
		return h.handleFollow(ctx, ev)
	case "unfollow":
		return h.handleUnfollow(ctx, ev)
	case "postback":
		return h.handlePostback(ctx, ev)
	case "join", "leave", "beacon":
		// recognised but nothing to do
		return nil
	default:
		h.Log.Debug().Str("event", ev.Type).Msg("ignoring unknown event type")
		return nil
	}
}

// handleMessage answers the two menu buttons; anything else gets the
// fallback reply.
func (h *Handler) handleMessage(ctx context.Context, ev line.Event) error {
	if ev.Source == nil || ev.Message == nil {
		return nil
	}
	switch ev.Message.Text {
	case messages.ButtonCheckCurrentPerformer:
		sub, err := h.Store.GetSubscription(ev.Source.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return h.Sender.Reply(ctx, ev.ReplyToken, line.TextMessage(messages.NoSubscription))
		}
		if err != nil {
			return fmt.Errorf("get subscription: %w", err)
		}
		return h.Sender.Reply(ctx, ev.ReplyToken,
			line.TextMessage(messages.CurrentSetting(config.DisplayName(sub.Performer))))
	case messages.ButtonChangePerformer:
		return h.Sender.Reply(ctx, ev.ReplyToken, h.menuMessage())
	default:
		return h.Sender.Reply(ctx, ev.ReplyToken, line.TextMessage(messages.NotRecognized))
	}
}

// handleFollow greets a new friend with the performer menu.
func (h *Handler) handleFollow(ctx context.Context, ev line.Event) error {
	if ev.Source == nil {
		return nil
	}
	return h.Sender.Push(ctx, ev.Source.UserID, h.menuMessage())
}

func (h *Handler) handleUnfollow(ctx context.Context, ev line.Event) error {
	if ev.Source == nil {
		return nil
	}
	return h.Store.DeleteSubscription(ev.Source.UserID)
}

// handlePostback stores the chosen performer and confirms it.
func (h *Handler) handlePostback(ctx context.Context, ev line.Event) error {
	if ev.Source == nil || ev.Postback == nil {
		return nil
	}
	artist := strings.TrimPrefix(ev.Postback.Data, "artist=")
	if err := h.Store.PutSubscription(store.Subscription{
		UserID:    ev.Source.UserID,
		Performer: artist,
	}); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return h.Sender.Reply(ctx, ev.ReplyToken,
		line.TextMessage(messages.Registered(config.DisplayName(artist))))
}

func (h *Handler) menuMessage() line.Message {
	return line.FlexMessage(messages.SelectPerformerAltText, messages.SelectPerformerMenu(h.Performers))
}

func (h *Handler) notifyAdmin(ctx context.Context, cause error) {
	adminID, err := h.Params.Get(ctx, params.AdminUserID)
	if err != nil {
		h.Log.Error().Err(err).Msg("admin user id lookup failed")
		return
	}
	if err := h.Sender.Push(ctx, adminID, line.TextMessage(messages.AdminAlert(cause))); err != nil {
		h.Log.Error().Err(err).Msg("admin notification failed")
	}
}

// StartServer runs the webhook server until SIGINT/SIGTERM, then shuts down
// gracefully.
func StartServer(h *Handler, log zerolog.Logger) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      h.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("starting webhook server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
