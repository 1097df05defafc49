package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// MessagesPerSecond is the outbound rate Telegram allows a bot across all chats.
const MessagesPerSecond = 30

// pollTimeout is the long polling timeout in seconds.
const pollTimeout = 60

var (
	// UpdatesTotal is the total number of updates received, by type.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Total number of Telegram updates received",
		},
		[]string{"type"},
	)

	// SendDuration is the time taken to deliver a message, including rate limiting.
	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "telegram_send_duration",
			Help: "Duration of Telegram sends",
		},
		[]string{"result"},
	)
)

// api is the part of the Telegram client the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetMe() (tgbotapi.User, error)
}

// Handler handles chat events.
type Handler interface {
	Handle(ctx context.Context, ev *chat.Event)
}

// Bot is a long polling Telegram client. It is also the Messenger used for replies and alerts.
type Bot struct {
	l       *slog.Logger
	api     api
	limiter *rate.Limiter
}

// NewBot logs in with the token.
func NewBot(l *slog.Logger, token string) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram client: %w", err)
	}

	l.Info("Authorized on Telegram", slog.String("username", client.Self.UserName))
	return newBot(l, client), nil
}

func newBot(l *slog.Logger, client api) *Bot {
	return &Bot{
		l:       l,
		api:     client,
		limiter: rate.NewLimiter(rate.Limit(MessagesPerSecond), MessagesPerSecond),
	}
}

// Send delivers a reply, waiting for the rate limiter first.
func (b *Bot) Send(ctx context.Context, chatID int64, r chat.Reply) error {
	start := time.Now()
	result := "ok"
	defer func() {
		SendDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	if err := b.limiter.Wait(ctx); err != nil {
		result = "cancelled"
		return fmt.Errorf("error waiting for send slot: %w", err)
	}

	if _, err := b.api.Send(messageFromReply(chatID, r)); err != nil {
		result = "error"
		return fmt.Errorf("error sending telegram message: %w", err)
	}
	return nil
}

// Ping checks the bot token is still accepted.
func (b *Bot) Ping(context.Context) error {
	if _, err := b.api.GetMe(); err != nil {
		return fmt.Errorf("failed to reach Telegram API: %w", err)
	}
	return nil
}

// Run polls for updates and hands them to h until ctx is done. Events for the same chat are handled in order.
func (b *Bot) Run(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := b.api.GetUpdatesChan(u)
	queue := newChatQueue(h.Handle)

	defer func() {
		b.api.StopReceivingUpdates()
		queue.wait()
	}()

	b.l.Info("Listening for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.receive(ctx, queue, update)
		}
	}
}

func (b *Bot) receive(ctx context.Context, queue *chatQueue, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		UpdatesTotal.WithLabelValues("callback_query").Inc()

		// Stop the client's loading indicator straight away.
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			b.l.Warn("Error answering callback query", slog.String(logging.KeyError, err.Error()))
		}
	} else if update.Message != nil {
		UpdatesTotal.WithLabelValues("message").Inc()
	} else {
		UpdatesTotal.WithLabelValues("other").Inc()
	}

	ev, ok := eventFromUpdate(update)
	if !ok {
		return
	}
	queue.push(ctx, ev)
}
