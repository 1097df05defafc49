package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	users map[string]*entities.User
	err   error
}

func (f *fakeFinder) FindUserByHandle(_ context.Context, handle string) (*entities.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[handle]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return u, nil
}

type sent struct {
	chatID int64
	reply  chat.Reply
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) Publish(_ context.Context, event string, _ *entities.Ticket) {
	p.events = append(p.events, event)
}

var testTicket = &entities.Ticket{
	ID:          "abc-123",
	Feature:     "Planner",
	CourseCode:  "CSEN102",
	Description: "The prerequisites shown are incorrect.",
	Status:      entities.TicketStatusOpen,
	Reporter:    entities.User{ID: 5, Handle: "jane"},
}

func TestDispatcher_TicketCreated(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	tests := []struct {
		name     string
		finder   *fakeFinder
		sendErr  error
		wantErr  bool
		wantSent int
	}{
		{
			name:     "admin known",
			finder:   &fakeFinder{users: map[string]*entities.User{"amfares13": {ID: 99, Handle: "amfares13"}}},
			wantSent: 1,
		},
		{
			name:     "admin never started the bot",
			finder:   &fakeFinder{users: map[string]*entities.User{}},
			wantSent: 0,
		},
		{
			name:    "store unavailable",
			finder:  &fakeFinder{err: errors.New("connection refused")},
			wantErr: true,
		},
		{
			name:     "send fails",
			finder:   &fakeFinder{users: map[string]*entities.User{"amfares13": {ID: 99}}},
			sendErr:  errors.New("blocked"),
			wantErr:  true,
			wantSent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []sent
			m := chat.MessengerFunc(func(_ context.Context, chatID int64, r chat.Reply) error {
				got = append(got, sent{chatID: chatID, reply: r})
				return tt.sendErr
			})
			pub := new(fakePublisher)

			d := NewDispatcher(l, tt.finder, m, pub, "@amfares13")
			err := d.TicketCreated(context.Background(), testTicket)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, got, tt.wantSent)
			if tt.wantSent > 0 {
				require.Equal(t, int64(99), got[0].chatID)
				require.Contains(t, got[0].reply.Text, "abc-123")
			}
			require.Equal(t, []string{"ticket.created"}, pub.events)
		})
	}
}

func TestFormatAlert(t *testing.T) {
	got := FormatAlert(testTicket)
	require.Equal(t, "🚨 New ticket\n\n"+
		"Feature: Planner\n"+
		"Course: CSEN102\n"+
		"Reported by: @jane\n"+
		"Ticket ID: abc-123\n\n"+
		"The prerequisites shown are incorrect.", got)

	noCourse := *testTicket
	noCourse.CourseCode = ""
	require.NotContains(t, FormatAlert(&noCourse), "Course:")
}

func TestFormatAlert_LongDescription(t *testing.T) {
	long := *testTicket
	long.Description = strings.Repeat("x", chat.MaxTextLength)

	got := FormatAlert(&long)
	require.LessOrEqual(t, utf8.RuneCountInString(got), chat.MaxTextLength)
	require.Contains(t, got, "Ticket ID: abc-123\n\n")
	require.True(t, strings.HasSuffix(got, "x…"))
}
