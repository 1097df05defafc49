// Package chat holds the transport-neutral shapes exchanged between the bot and a chat platform.
package chat

import (
	"context"
	"unicode/utf8"

	"github.com/Jacobbrewer1/triage/pkg/entities"
)

// Event is one inbound interaction from a user.
type Event struct {
	// ChatID is where replies go.
	ChatID int64

	// From is the user that caused the event.
	From entities.User

	// Command is the command name without the leading "/", if the text was a command.
	Command string

	// Text is the raw message text. Empty for actions.
	Text string

	// Action is the token of a selected action. Empty for messages.
	Action string
}

// Kind names the event for metrics and logs.
func (e *Event) Kind() string {
	switch {
	case e.Action != "":
		return "action"
	case e.Command != "":
		return "command"
	default:
		return "text"
	}
}

// Button is a selectable action attached to a reply.
type Button struct {
	Label  string
	Action string
}

// Reply is what the bot wants shown to the user.
type Reply struct {
	Text string

	// Actions are rows of inline buttons.
	Actions [][]Button

	// Menu is a persistent keyboard of labels the user can send back as text.
	Menu [][]string

	// RemoveMenu hides any persistent keyboard.
	RemoveMenu bool
}

// MaxTextLength is the most characters a chat platform accepts in one message.
const MaxTextLength = 4096

// Clip shortens s to at most max runes, ending with "…" when something was cut.
func Clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// FitText appends body to header, clipping body so the whole text stays within MaxTextLength.
func FitText(header, body string) string {
	return header + Clip(body, MaxTextLength-utf8.RuneCountInString(header))
}

// Text creates a plain reply.
func Text(text string) Reply {
	return Reply{Text: text}
}

// Messenger delivers replies to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, r Reply) error
}

// MessengerFunc adapts a function to a Messenger.
type MessengerFunc func(ctx context.Context, chatID int64, r Reply) error

func (f MessengerFunc) Send(ctx context.Context, chatID int64, r Reply) error {
	return f(ctx, chatID, r)
}
