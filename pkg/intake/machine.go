package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/Jacobbrewer1/triage/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// State is a user's position in the report flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingFeature
	StateAwaitingDescription
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFeature:
		return "awaiting_feature"
	case StateAwaitingDescription:
		return "awaiting_description"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Conversation is the per-user data held between messages.
type Conversation struct {
	State   State
	Feature string
}

const (
	msgSelectFeature   = "Please select the feature where you encountered the bug:"
	msgPlannerPrompt   = "Please describe the issue in the following format:\n\nLine 1: Course Code (e.g., CSEN101)\nLine 2+: Description of the problem\n\nExample:\nCSEN102\nThe prerequisites shown are incorrect."
	msgFeaturePrompt   = "Please describe the bug you found in %s."
	msgEmptyReport     = "The description can't be empty. Please describe the problem."
	msgTicketCreated   = "✅ Ticket created successfully! Thank you for your feedback."
	msgTicketFailed    = "❌ There was an error saving your ticket. Please try again later."
	msgCancelled       = "Operation cancelled. Type /start to begin again."
	msgNothingToCancel = "There is nothing to cancel. Type /start to begin."
	msgHowCanIHelp     = "How can I help you today?"
)

var ticketsCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "intake_tickets_created_total",
		Help: "Total number of reports completed, by result",
	},
	[]string{"result"},
)

// TicketCreator persists a completed report.
type TicketCreator interface {
	CreateTicket(ctx context.Context, t entities.NewTicket, now time.Time) (string, error)
}

// Notifier is told about every ticket that was persisted.
type Notifier interface {
	TicketCreated(ctx context.Context, ticket *entities.Ticket) error
}

// Machine walks users through reporting a bug: pick a feature, then describe it.
type Machine struct {
	l        *slog.Logger
	sessions *session.Store[Conversation]
	store    TicketCreator
	notifier Notifier
	mainMenu [][]string
	now      func() time.Time
}

// NewMachine creates the intake machine. mainMenu is shown once a flow ends.
func NewMachine(l *slog.Logger, sessions *session.Store[Conversation], store TicketCreator, notifier Notifier, mainMenu [][]string) *Machine {
	return &Machine{
		l:        l,
		sessions: sessions,
		store:    store,
		notifier: notifier,
		mainMenu: mainMenu,
		now:      time.Now,
	}
}

// FeatureMenu is the feature keyboard, two to a row.
func FeatureMenu() [][]string {
	menu := make([][]string, 0, (len(entities.Features)+1)/2)
	for i := 0; i < len(entities.Features); i += 2 {
		end := i + 2
		if end > len(entities.Features) {
			end = len(entities.Features)
		}
		row := make([]string, end-i)
		copy(row, entities.Features[i:end])
		menu = append(menu, row)
	}
	return menu
}

// State returns where the user is in the flow.
func (m *Machine) State(userID int64) State {
	conv, ok := m.sessions.Get(userID)
	if !ok {
		return StateIdle
	}
	return conv.State
}

// Begin starts a new report, discarding any unfinished one.
func (m *Machine) Begin(_ context.Context, user entities.User) chat.Reply {
	m.sessions.With(user.ID, func(conv *Conversation) bool {
		*conv = Conversation{State: StateAwaitingFeature}
		return true
	})

	return chat.Reply{
		Text: msgSelectFeature,
		Menu: FeatureMenu(),
	}
}

// Cancel abandons the user's report without saving anything.
func (m *Machine) Cancel(_ context.Context, user entities.User) chat.Reply {
	var wasActive bool
	m.sessions.With(user.ID, func(conv *Conversation) bool {
		wasActive = conv.State != StateIdle
		return false
	})

	if !wasActive {
		return chat.Reply{Text: msgNothingToCancel, RemoveMenu: true}
	}
	return chat.Reply{Text: msgCancelled, RemoveMenu: true}
}

// Handle feeds a text message into the user's flow. It returns false when the user is not in one.
func (m *Machine) Handle(ctx context.Context, user entities.User, text string) (chat.Reply, bool) {
	var (
		reply   chat.Reply
		handled bool
		created *entities.Ticket
	)

	m.sessions.With(user.ID, func(conv *Conversation) bool {
		switch conv.State {
		case StateAwaitingFeature:
			handled = true
			conv.Feature = text
			conv.State = StateAwaitingDescription
			reply = descriptionPrompt(text)
			return true

		case StateAwaitingDescription:
			handled = true
			report := ParseReport(conv.Feature, text)
			if strings.TrimSpace(report.Description) == "" {
				reply = chat.Text(msgEmptyReport)
				return true
			}

			// The session stays locked across the store call.
			ticket, err := m.create(ctx, user, conv.Feature, report)
			if err != nil {
				m.l.Error("Error creating ticket",
					slog.String(logging.KeyError, err.Error()),
					slog.Int64(logging.KeyUserID, user.ID),
					slog.String(logging.KeyFeature, conv.Feature),
				)
				ticketsCreated.WithLabelValues("error").Inc()
				reply = chat.Reply{Text: msgTicketFailed, Menu: m.mainMenu}
				return false
			}

			ticketsCreated.WithLabelValues("ok").Inc()
			created = ticket
			reply = chat.Reply{
				Text: msgTicketCreated + "\n\n" + msgHowCanIHelp,
				Menu: m.mainMenu,
			}
			return false

		default:
			return false
		}
	})

	if created != nil {
		// The ticket is saved; a failed notification is only logged.
		if err := m.notifier.TicketCreated(ctx, created); err != nil {
			m.l.Warn("Error notifying admin of new ticket",
				slog.String(logging.KeyError, err.Error()),
				slog.String(logging.KeyTicketID, created.ID),
			)
		}
	}

	return reply, handled
}

func (m *Machine) create(ctx context.Context, user entities.User, feature string, report Report) (*entities.Ticket, error) {
	now := m.now().UTC()
	id, err := m.store.CreateTicket(ctx, entities.NewTicket{
		Reporter:    user,
		Feature:     feature,
		CourseCode:  report.CourseCode,
		Description: report.Description,
	}, now)
	if err != nil {
		return nil, err
	}

	m.l.Info("Ticket created",
		slog.String(logging.KeyTicketID, id),
		slog.Int64(logging.KeyUserID, user.ID),
		slog.String(logging.KeyFeature, feature),
	)

	return &entities.Ticket{
		ID:          id,
		Feature:     feature,
		CourseCode:  report.CourseCode,
		Description: report.Description,
		Status:      entities.TicketStatusOpen,
		CreatedAt:   now,
		Reporter:    user,
	}, nil
}

func descriptionPrompt(feature string) chat.Reply {
	if feature == entities.FeaturePlanner {
		return chat.Reply{Text: msgPlannerPrompt, RemoveMenu: true}
	}
	return chat.Reply{Text: fmt.Sprintf(msgFeaturePrompt, feature), RemoveMenu: true}
}
