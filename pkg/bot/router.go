package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/access"
	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/intake"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/Jacobbrewer1/triage/pkg/navigator"
)

const (
	CommandStart   = "start"
	CommandReport  = "report"
	CommandCancel  = "cancel"
	CommandTickets = "tickets"
	CommandStats   = "stats"
	CommandHelp    = "help"

	LabelReportBug   = "Report a Bug"
	LabelViewTickets = "View Open Tickets"
)

const (
	msgWelcome      = "Welcome to the ZC Toolbox Support Bot! 🛠️\nHow can I help you today?"
	msgDenied       = "⛔ You are not authorized to view tickets."
	msgUnavailable  = "Sorry, I couldn't complete that right now. Please try again later."
	msgUnknownInput = "Please choose an option from the menu, or type /start to begin."
	msgUnknownCmd   = "Unknown command. Type /help to see what I can do."
	msgBadAction    = "That button is no longer valid. Type /tickets to start again."
	msgHelp         = "/start - show the main menu\n" +
		"/report - report a bug\n" +
		"/cancel - cancel the current report\n" +
		"/tickets - browse open tickets (admin)\n" +
		"/stats - ticket statistics (admin)"
)

// MainMenu is the keyboard shown at the start and end of every flow.
func MainMenu() [][]string {
	return [][]string{{LabelReportBug, LabelViewTickets}}
}

// Store is what the router reads and writes directly.
type Store interface {
	StatsReader
	UpsertUser(ctx context.Context, user entities.User, now time.Time) error
}

// Router turns chat events into replies.
type Router struct {
	l         *slog.Logger
	store     Store
	intake    *intake.Machine
	navigator *navigator.Navigator
	policy    access.Policy
	messenger chat.Messenger
	now       func() time.Time
}

// NewRouter creates a router.
func NewRouter(
	l *slog.Logger,
	store Store,
	machine *intake.Machine,
	nav *navigator.Navigator,
	policy access.Policy,
	messenger chat.Messenger,
) *Router {
	return &Router{
		l:         l,
		store:     store,
		intake:    machine,
		navigator: nav,
		policy:    policy,
		messenger: messenger,
		now:       time.Now,
	}
}

// handler renders the reply for one route.
type handler func(ctx context.Context, ev *chat.Event) (chat.Reply, error)

// Handle routes the event and sends the reply.
func (r *Router) Handle(ctx context.Context, ev *chat.Event) {
	start := time.Now()
	route, h := r.route(ev)

	l := r.l.With(
		slog.Int64(logging.KeyUserID, ev.From.ID),
		slog.String("route", route),
	)

	defer func() {
		ChatEventsTotal.WithLabelValues(ev.Kind(), route).Inc()
		ChatEventDuration.WithLabelValues(ev.Kind(), route).Observe(time.Since(start).Seconds())
	}()

	// Recover from any panics that occur in the handler.
	defer func() {
		if rec := recover(); rec != nil {
			l.Error("Panic in chat handler",
				slog.String(logging.KeyError, fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
			r.send(ctx, l, ev.ChatID, chat.Text(msgUnavailable))
		}
	}()

	reply, err := h(ctx, ev)
	if err != nil {
		l.Error("Error handling chat event", slog.String(logging.KeyError, err.Error()))
		reply = chat.Text(msgUnavailable)
	}

	if reply.Text == "" {
		return
	}
	r.send(ctx, l, ev.ChatID, reply)
}

func (r *Router) send(ctx context.Context, l *slog.Logger, chatID int64, reply chat.Reply) {
	if err := r.messenger.Send(ctx, chatID, reply); err != nil {
		l.Error("Error sending reply", slog.String(logging.KeyError, err.Error()))
	}
}

// route picks the handler for an event. Menu labels win over an in-progress report.
func (r *Router) route(ev *chat.Event) (string, handler) {
	if ev.Action != "" {
		return "action", r.admin("action", r.handleAction)
	}

	switch ev.Command {
	case "":
	case CommandStart:
		return CommandStart, r.handleStart
	case CommandReport:
		return CommandReport, r.handleReport
	case CommandCancel:
		return CommandCancel, r.handleCancel
	case CommandTickets:
		return CommandTickets, r.admin(CommandTickets, r.handleTickets)
	case CommandStats:
		return CommandStats, r.admin(CommandStats, r.handleStats)
	case CommandHelp:
		return CommandHelp, static(chat.Text(msgHelp))
	default:
		return "unknown_command", static(chat.Text(msgUnknownCmd))
	}

	switch strings.TrimSpace(ev.Text) {
	case LabelReportBug:
		return CommandReport, r.handleReport
	case LabelViewTickets:
		return CommandTickets, r.admin(CommandTickets, r.handleTickets)
	}

	return "text", r.handleText
}

// admin guards h with the access policy. Denied requests never reach the store.
func (r *Router) admin(route string, h handler) handler {
	return func(ctx context.Context, ev *chat.Event) (chat.Reply, error) {
		if !r.policy.Allowed(ev.From) {
			AccessDenied.WithLabelValues(route).Inc()
			r.l.Info("Access denied",
				slog.Int64(logging.KeyUserID, ev.From.ID),
				slog.String("route", route),
			)
			return chat.Text(msgDenied), nil
		}
		return h(ctx, ev)
	}
}

func static(rep chat.Reply) handler {
	return func(context.Context, *chat.Event) (chat.Reply, error) {
		return rep, nil
	}
}

func (r *Router) handleStart(ctx context.Context, ev *chat.Event) (chat.Reply, error) {
	if err := r.store.UpsertUser(ctx, ev.From, r.now().UTC()); err != nil {
		return chat.Reply{}, fmt.Errorf("error registering user: %w", err)
	}
	return chat.Reply{Text: msgWelcome, Menu: MainMenu()}, nil
}

func (r *Router) handleReport(ctx context.Context, ev *chat.Event) (chat.Reply, error) {
	return r.intake.Begin(ctx, ev.From), nil
}

func (r *Router) handleCancel(ctx context.Context, ev *chat.Event) (chat.Reply, error) {
	return r.intake.Cancel(ctx, ev.From), nil
}

func (r *Router) handleText(ctx context.Context, ev *chat.Event) (chat.Reply, error) {
	if rep, ok := r.intake.Handle(ctx, ev.From, ev.Text); ok {
		return rep, nil
	}
	return chat.Reply{Text: msgUnknownInput, Menu: MainMenu()}, nil
}

func (r *Router) handleTickets(ctx context.Context, _ *chat.Event) (chat.Reply, error) {
	return r.navigator.Categories(ctx)
}

func (r *Router) handleAction(ctx context.Context, ev *chat.Event) (chat.Reply, error) {
	a, err := navigator.ParseAction(ev.Action)
	if errors.Is(err, navigator.ErrInvalidAction) {
		r.l.Warn("Invalid action token", slog.String("token", ev.Action))
		return chat.Text(msgBadAction), nil
	} else if err != nil {
		return chat.Reply{}, err
	}
	return r.navigator.Handle(ctx, a)
}

func (r *Router) handleStats(ctx context.Context, _ *chat.Event) (chat.Reply, error) {
	text, err := ReadStats(ctx, r.store)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Text(text), nil
}
