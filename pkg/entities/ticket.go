package entities

import "time"

// TicketStatus is the lifecycle state of a ticket. A ticket only ever moves from open to closed.
type TicketStatus string

const (
	// TicketStatusOpen is the status of a ticket that has not been resolved.
	TicketStatusOpen TicketStatus = "Open"

	// TicketStatusClosed is the status of a resolved ticket.
	TicketStatusClosed TicketStatus = "Closed"
)

// Ticket is a reported issue against a feature.
type Ticket struct {
	// ID is the random UUID of the ticket.
	ID string `json:"id" bson:"id"`

	// Feature is the product area the ticket was raised against. Stored as given.
	Feature string `json:"feature" bson:"feature"`

	// CourseCode is only set for planner tickets that carried one.
	CourseCode string `json:"course_code,omitempty" bson:"course_code,omitempty"`

	// Description is the free text of the report.
	Description string `json:"description" bson:"description"`

	// Status is either open or closed.
	Status TicketStatus `json:"status" bson:"status"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// ClosedAt is the time of the latest close, nil while open.
	ClosedAt *time.Time `json:"closed_at,omitempty" bson:"closed_at,omitempty"`

	// Reporter is the user that raised the ticket. Populated on reads.
	Reporter User `json:"reporter" bson:"-"`
}

// IsOpen reports whether the ticket still needs attention.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// NewTicket is the data collected from a reporter before a ticket is persisted.
type NewTicket struct {
	Reporter    User
	Feature     string
	CourseCode  string
	Description string
}

// Counts is a tally of tickets by status.
type Counts struct {
	Total  int64 `json:"total"`
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}
