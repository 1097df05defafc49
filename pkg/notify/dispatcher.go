package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/triage/pkg/access"
	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/events"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_notifications_total",
		Help: "Total number of admin notifications, by result",
	},
	[]string{"result"},
)

// UserFinder resolves a handle to a known user.
type UserFinder interface {
	FindUserByHandle(ctx context.Context, handle string) (*entities.User, error)
}

// Dispatcher alerts the administrator about new tickets.
type Dispatcher struct {
	l         *slog.Logger
	users     UserFinder
	messenger chat.Messenger
	publisher events.Publisher
	admin     string
}

// NewDispatcher creates a dispatcher alerting the user with the given handle. publisher may be nil.
func NewDispatcher(l *slog.Logger, users UserFinder, messenger chat.Messenger, publisher events.Publisher, adminHandle string) *Dispatcher {
	return &Dispatcher{
		l:         l,
		users:     users,
		messenger: messenger,
		publisher: publisher,
		admin:     access.NormaliseHandle(adminHandle),
	}
}

// TicketCreated publishes the event and sends the admin alert. An admin who has never used the
// bot cannot be messaged; that is logged and skipped. Send and lookup failures are returned.
func (d *Dispatcher) TicketCreated(ctx context.Context, ticket *entities.Ticket) error {
	if d.publisher != nil {
		d.publisher.Publish(ctx, events.TicketCreated, ticket)
	}

	admin, err := d.users.FindUserByHandle(ctx, d.admin)
	if errors.Is(err, dataaccess.ErrNotFound) {
		d.l.Warn("Admin has not started the bot, skipping notification",
			slog.String("admin", d.admin),
			slog.String(logging.KeyTicketID, ticket.ID),
		)
		notificationsTotal.WithLabelValues("skipped").Inc()
		return nil
	} else if err != nil {
		notificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("error finding admin: %w", err)
	}

	if err := d.messenger.Send(ctx, admin.ID, chat.Text(FormatAlert(ticket))); err != nil {
		notificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("error sending admin notification: %w", err)
	}

	notificationsTotal.WithLabelValues("sent").Inc()
	return nil
}

// FormatAlert renders the admin alert for a new ticket.
func FormatAlert(t *entities.Ticket) string {
	b := new(strings.Builder)
	b.WriteString("🚨 New ticket\n\n")
	fmt.Fprintf(b, "Feature: %s\n", t.Feature)
	if t.CourseCode != "" {
		fmt.Fprintf(b, "Course: %s\n", t.CourseCode)
	}
	fmt.Fprintf(b, "Reported by: %s\n", t.Reporter.Display())
	fmt.Fprintf(b, "Ticket ID: %s\n\n", t.ID)
	return chat.FitText(b.String(), t.Description)
}
