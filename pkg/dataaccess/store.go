package dataaccess

import (
	"context"
	"errors"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrNotFound is returned when a ticket or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTicket is returned when a ticket is missing required data.
	ErrInvalidTicket = errors.New("invalid ticket")
)

// TicketStore is the sole owner of users, tickets and the reported-by relationship.
// Every call runs in its own transactional unit.
type TicketStore interface {
	// UpsertUser creates the user if absent and refreshes handle, first name and last activity.
	UpsertUser(ctx context.Context, user entities.User, now time.Time) error

	// CreateTicket creates an open ticket and its reporter edge atomically, returning the new id.
	CreateTicket(ctx context.Context, t entities.NewTicket, now time.Time) (string, error)

	// ListOpenByFeature returns the open tickets for a feature, newest first.
	ListOpenByFeature(ctx context.Context, feature string) ([]*entities.Ticket, error)

	// ListAllOpen returns every open ticket, newest first.
	ListAllOpen(ctx context.Context) ([]*entities.Ticket, error)

	// GetByID returns a ticket joined with its reporter.
	GetByID(ctx context.Context, id string) (*entities.Ticket, error)

	// CloseTicket marks the ticket closed and returns its feature. Closing a
	// closed ticket succeeds again and overwrites the closing time.
	CloseTicket(ctx context.Context, id string, now time.Time) (string, error)

	// CountsByFeature returns the number of open tickets per feature.
	CountsByFeature(ctx context.Context) (map[string]int64, error)

	// OverallCounts returns total, open and closed ticket counts.
	OverallCounts(ctx context.Context) (*entities.Counts, error)

	// UserCount returns the number of known users.
	UserCount(ctx context.Context) (int64, error)

	// FindUserByHandle looks a user up by handle, without the leading "@".
	FindUserByHandle(ctx context.Context, handle string) (*entities.User, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Migrate creates the constraints and indexes the store relies on.
	Migrate(ctx context.Context) error

	// Close releases the underlying driver.
	Close(ctx context.Context) error
}

// newTicketID generates the random id of a ticket.
var newTicketID = uuid.NewString

// validateNewTicket checks what every backend requires before writing.
func validateNewTicket(t entities.NewTicket) error {
	if t.Description == "" {
		return errors.Join(ErrInvalidTicket, errors.New("description is required"))
	}
	if t.Reporter.ID == 0 {
		return errors.Join(ErrInvalidTicket, errors.New("reporter is required"))
	}
	return nil
}

// observe records the request and starts the latency timer for a query. The returned func stops the timer.
func observe(dal, query string) func() {
	monitoring.StoreTotalRequests.WithLabelValues(dal, query).Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(dal, query))
	return func() {
		t.ObserveDuration()
	}
}

// failed counts err against the query unless it is a not-found result. It returns err unchanged.
func failed(dal, query string, err error) error {
	if err != nil && !errors.Is(err, ErrNotFound) {
		monitoring.StoreErrors.WithLabelValues(dal, query).Inc()
	}
	return err
}
