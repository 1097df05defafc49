package dataaccess

import (
	"testing"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"
)

func TestTicketFromRecord(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	closed := created.Add(time.Hour)

	tests := []struct {
		name string
		rec  *neo4j.Record
		want *entities.Ticket
	}{
		{
			name: "open planner ticket",
			rec: &neo4j.Record{
				Keys: []string{"id", "feature", "course_code", "description", "status", "created_at", "closed_at", "telegram_id", "username", "first_name"},
				Values: []any{
					"abc", "Planner", "CSEN102", "The prerequisites shown are incorrect.", "Open", created, nil,
					int64(42), "jane", "Jane",
				},
			},
			want: &entities.Ticket{
				ID:          "abc",
				Feature:     "Planner",
				CourseCode:  "CSEN102",
				Description: "The prerequisites shown are incorrect.",
				Status:      entities.TicketStatusOpen,
				CreatedAt:   created,
				Reporter:    entities.User{ID: 42, Handle: "jane", FirstName: "Jane"},
			},
		},
		{
			name: "closed ticket without optional fields",
			rec: &neo4j.Record{
				Keys:   []string{"id", "feature", "course_code", "description", "status", "created_at", "closed_at", "telegram_id", "username", "first_name"},
				Values: []any{"def", "GPA", nil, "wrong gpa", "Closed", created, closed, int64(7), nil, "Omar"},
			},
			want: &entities.Ticket{
				ID:          "def",
				Feature:     "GPA",
				Description: "wrong gpa",
				Status:      entities.TicketStatusClosed,
				CreatedAt:   created,
				ClosedAt:    &closed,
				Reporter:    entities.User{ID: 7, FirstName: "Omar"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ticketFromRecord(tt.rec))
		})
	}
}

func TestRecordHelpers_MissingKeys(t *testing.T) {
	rec := &neo4j.Record{Keys: []string{"count"}, Values: []any{"not a number"}}

	require.Equal(t, int64(0), recordInt(rec, "count"))
	require.Equal(t, "", recordString(rec, "missing"))
	require.Nil(t, recordTime(rec, "missing"))
}

func TestNullable(t *testing.T) {
	require.Nil(t, nullable(""))
	require.Equal(t, "CSEN102", nullable("CSEN102"))
}

func TestCypherFindUserByHandle_IgnoresCase(t *testing.T) {
	require.Contains(t, cypherFindUserByHandle, "toLower(u.username) = toLower($username)")
	require.NotContains(t, cypherFindUserByHandle, "{username: $username}")
}
