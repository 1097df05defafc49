package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/events"
	"github.com/Jacobbrewer1/triage/pkg/logging"
)

// MaxListed is the number of tickets shown in a list. The rest are not reachable from the list.
const MaxListed = 20

const (
	labelAll   = "All tickets"
	labelBack  = "⬅️ Back"
	labelClose = "✅ Close ticket"

	msgCategories    = "📂 Open tickets by feature:"
	msgNoOpenTickets = "🎉 No open tickets found! Everything seems to be working smoothly."
	msgNotFound      = "Ticket not found."
	msgClosed        = "✅ Ticket %s (%s) has been closed."
)

// labelLength caps the description shown on a list button.
const labelLength = 40

// Store is the data the navigator reads and mutates.
type Store interface {
	CountsByFeature(ctx context.Context) (map[string]int64, error)
	ListOpenByFeature(ctx context.Context, feature string) ([]*entities.Ticket, error)
	ListAllOpen(ctx context.Context) ([]*entities.Ticket, error)
	GetByID(ctx context.Context, id string) (*entities.Ticket, error)
	CloseTicket(ctx context.Context, id string, now time.Time) (string, error)
}

// Navigator renders the administrator's ticket views. Every view is built from a fresh read;
// everything needed for the next step lives in the button tokens.
type Navigator struct {
	l         *slog.Logger
	store     Store
	publisher events.Publisher
	now       func() time.Time
}

// NewNavigator creates a navigator. publisher may be nil.
func NewNavigator(l *slog.Logger, store Store, publisher events.Publisher) *Navigator {
	return &Navigator{
		l:         l,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle renders the view an action asks for.
func (n *Navigator) Handle(ctx context.Context, a Action) (chat.Reply, error) {
	switch a.Kind {
	case KindCategory:
		if a.All {
			return n.AllTickets(ctx)
		}
		return n.TicketList(ctx, a.Category)
	case KindTicket:
		return n.TicketDetail(ctx, a.TicketID)
	case KindClose:
		return n.Close(ctx, a.TicketID)
	case KindBackToCategories:
		return n.Categories(ctx)
	default:
		return chat.Reply{}, fmt.Errorf("%w: kind %d", ErrInvalidAction, a.Kind)
	}
}

// Categories lists each feature with its open count, canonical features first.
func (n *Navigator) Categories(ctx context.Context) (chat.Reply, error) {
	counts, err := n.store.CountsByFeature(ctx)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("error counting tickets by feature: %w", err)
	}

	features := make([]string, 0, len(entities.Features)+len(counts))
	features = append(features, entities.Features...)

	extra := make([]string, 0)
	for f, c := range counts {
		if c > 0 && !entities.IsCanonicalFeature(f) {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	features = append(features, extra...)

	text := new(strings.Builder)
	text.WriteString(msgCategories)

	var total int64
	rows := make([][]chat.Button, 0, len(features)+1)
	for _, f := range features {
		total += counts[f]
		label := fmt.Sprintf("%s (%d)", f, counts[f])

		a := CategoryAction(f)
		if !a.Fits() {
			// Listed so the count is still visible, but it cannot be opened.
			fmt.Fprintf(text, "\n• %s", label)
			continue
		}
		rows = append(rows, []chat.Button{{Label: label, Action: a.Token()}})
	}
	rows = append(rows, []chat.Button{{
		Label:  fmt.Sprintf("%s (%d)", labelAll, total),
		Action: AllCategoriesAction().Token(),
	}})

	return chat.Reply{Text: text.String(), Actions: rows}, nil
}

// TicketList shows the newest open tickets for a feature.
func (n *Navigator) TicketList(ctx context.Context, feature string) (chat.Reply, error) {
	tickets, err := n.store.ListOpenByFeature(ctx, feature)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("error listing tickets: %w", err)
	}
	return ticketList(feature, tickets, false), nil
}

// AllTickets shows the newest open tickets across every feature.
func (n *Navigator) AllTickets(ctx context.Context) (chat.Reply, error) {
	tickets, err := n.store.ListAllOpen(ctx)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("error listing tickets: %w", err)
	}
	return ticketList(labelAll, tickets, true), nil
}

func ticketList(title string, tickets []*entities.Ticket, withFeature bool) chat.Reply {
	back := []chat.Button{{Label: labelBack, Action: BackToCategoriesAction().Token()}}
	if len(tickets) == 0 {
		return chat.Reply{Text: msgNoOpenTickets, Actions: [][]chat.Button{back}}
	}

	text := fmt.Sprintf("📋 %s: %d open", title, len(tickets))
	if len(tickets) > MaxListed {
		text += fmt.Sprintf(", showing the newest %d", MaxListed)
		tickets = tickets[:MaxListed]
	}

	rows := make([][]chat.Button, 0, len(tickets)+1)
	for _, t := range tickets {
		rows = append(rows, []chat.Button{{
			Label:  listLabel(t, withFeature),
			Action: TicketAction(t.ID).Token(),
		}})
	}
	rows = append(rows, back)

	return chat.Reply{Text: text, Actions: rows}
}

// TicketDetail shows one ticket with a close button while it is open.
func (n *Navigator) TicketDetail(ctx context.Context, id string) (chat.Reply, error) {
	t, err := n.store.GetByID(ctx, id)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return notFound(), nil
	} else if err != nil {
		return chat.Reply{}, fmt.Errorf("error getting ticket: %w", err)
	}

	text := new(strings.Builder)
	fmt.Fprintf(text, "🎫 Ticket %s\n\n", t.ID)
	fmt.Fprintf(text, "Feature: %s\n", t.Feature)
	if t.CourseCode != "" {
		fmt.Fprintf(text, "Course: %s\n", t.CourseCode)
	}
	fmt.Fprintf(text, "Status: %s\n", t.Status)
	fmt.Fprintf(text, "Reported by: %s\n", t.Reporter.Display())
	fmt.Fprintf(text, "Created: %s\n", formatDate(t.CreatedAt))
	if t.ClosedAt != nil {
		fmt.Fprintf(text, "Closed: %s\n", formatDate(*t.ClosedAt))
	}
	text.WriteString("\n")

	rows := make([][]chat.Button, 0, 2)
	if t.IsOpen() {
		rows = append(rows, []chat.Button{{Label: labelClose, Action: CloseAction(t.ID).Token()}})
	}

	back := CategoryAction(t.Feature)
	if !back.Fits() {
		back = BackToCategoriesAction()
	}
	rows = append(rows, []chat.Button{{Label: labelBack, Action: back.Token()}})

	return chat.Reply{Text: chat.FitText(text.String(), t.Description), Actions: rows}, nil
}

// Close closes the ticket. Closing an already closed ticket confirms again.
func (n *Navigator) Close(ctx context.Context, id string) (chat.Reply, error) {
	now := n.now().UTC()
	feature, err := n.store.CloseTicket(ctx, id, now)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return notFound(), nil
	} else if err != nil {
		return chat.Reply{}, fmt.Errorf("error closing ticket: %w", err)
	}

	n.l.Info("Ticket closed",
		slog.String(logging.KeyTicketID, id),
		slog.String(logging.KeyFeature, feature),
	)

	if n.publisher != nil {
		n.publisher.Publish(ctx, events.TicketClosed, &entities.Ticket{
			ID:       id,
			Feature:  feature,
			Status:   entities.TicketStatusClosed,
			ClosedAt: &now,
		})
	}

	return chat.Text(fmt.Sprintf(msgClosed, id, feature)), nil
}

func notFound() chat.Reply {
	return chat.Reply{
		Text:    msgNotFound,
		Actions: [][]chat.Button{{{Label: labelBack, Action: BackToCategoriesAction().Token()}}},
	}
}

func listLabel(t *entities.Ticket, withFeature bool) string {
	b := new(strings.Builder)
	if withFeature {
		b.WriteString(t.Feature + ": ")
	}
	if t.CourseCode != "" {
		b.WriteString("[" + t.CourseCode + "] ")
	}
	b.WriteString(chat.Clip(strings.Join(strings.Fields(t.Description), " "), labelLength))
	b.WriteString(" · " + formatDate(t.CreatedAt))
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(time.DateOnly)
}
