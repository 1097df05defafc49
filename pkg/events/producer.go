package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

const (
	// TicketCreated is published after a ticket is persisted.
	TicketCreated = "ticket.created"

	// TicketClosed is published after a ticket is closed.
	TicketClosed = "ticket.closed"
)

// publishTimeout bounds a single publish so callers are never held up by the broker.
const publishTimeout = 5 * time.Second

var publishedEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Total number of ticket events published, by result",
	},
	[]string{"event", "result"},
)

// Publisher sends ticket lifecycle events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event string, ticket *entities.Ticket)
}

// TicketEvent is the message body written to the topic.
type TicketEvent struct {
	Event      string     `json:"event"`
	TicketID   string     `json:"ticket_id"`
	Feature    string     `json:"feature"`
	CourseCode string     `json:"course_code,omitempty"`
	Status     string     `json:"status"`
	ReporterID int64      `json:"reporter_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// NewTicketEvent builds the message for a ticket.
func NewTicketEvent(event string, t *entities.Ticket) *TicketEvent {
	return &TicketEvent{
		Event:      event,
		TicketID:   t.ID,
		Feature:    t.Feature,
		CourseCode: t.CourseCode,
		Status:     string(t.Status),
		ReporterID: t.Reporter.ID,
		CreatedAt:  t.CreatedAt,
		ClosedAt:   t.ClosedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes ticket events to a kafka topic.
type Producer struct {
	l      *slog.Logger
	writer messageWriter
}

// NewProducer creates a producer. With no brokers or topic the producer is a no-op.
func NewProducer(l *slog.Logger, brokers []string, topic string) *Producer {
	p := &Producer{l: l}
	if len(brokers) == 0 || topic == "" {
		return p
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return p
}

// Enabled reports whether events are actually sent anywhere.
func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// Publish writes the event keyed by ticket id. Failures are logged and counted, never returned.
func (p *Producer) Publish(ctx context.Context, event string, ticket *entities.Ticket) {
	if p.writer == nil || ticket == nil {
		return
	}

	body, err := json.Marshal(NewTicketEvent(event, ticket))
	if err != nil {
		p.l.Error("Error marshalling ticket event", slog.String(logging.KeyError, err.Error()))
		publishedEvents.WithLabelValues(event, "error").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ticket.ID),
		Value: body,
	}); err != nil {
		p.l.Warn("Error publishing ticket event",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyTicketID, ticket.ID),
			slog.String("event", event),
		)
		publishedEvents.WithLabelValues(event, "error").Inc()
		return
	}
	publishedEvents.WithLabelValues(event, "ok").Inc()
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers splits "host1:9092,host2:9092" into addresses.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
