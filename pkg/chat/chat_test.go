package chat

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestEvent_Kind(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{name: "action", event: Event{Action: "ticket:1", Text: "ignored"}, want: "action"},
		{name: "command", event: Event{Command: "start", Text: "/start"}, want: "command"},
		{name: "text", event: Event{Text: "hello"}, want: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.event.Kind())
		})
	}
}

func TestMessengerFunc(t *testing.T) {
	var got Reply
	var m Messenger = MessengerFunc(func(_ context.Context, chatID int64, r Reply) error {
		require.Equal(t, int64(3), chatID)
		got = r
		return nil
	})

	require.NoError(t, m.Send(context.Background(), 3, Text("hi")))
	require.Equal(t, "hi", got.Text)
}

func TestClip(t *testing.T) {
	tests := []struct {
		name string
		s    string
		max  int
		want string
	}{
		{name: "short", s: "short", max: 10, want: "short"},
		{name: "exact", s: "abcde", max: 5, want: "abcde"},
		{name: "cut", s: "abcdefgh", max: 5, want: "abcd…"},
		{name: "runes", s: "éééééé", max: 4, want: "ééé…"},
		{name: "no room", s: "abc", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clip(tt.s, tt.max))
		})
	}
}

func TestFitText(t *testing.T) {
	header := "🎫 header\n\n"
	got := FitText(header, strings.Repeat("é", MaxTextLength))
	require.Equal(t, MaxTextLength, utf8.RuneCountInString(got))
	require.True(t, strings.HasPrefix(got, header))

	require.Equal(t, header+"short", FitText(header, "short"))
}
