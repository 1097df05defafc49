package navigator

import (
	"errors"
	"fmt"
	"strings"
)

// MaxTokenLength is the largest token a chat platform will carry on a button.
const MaxTokenLength = 64

const (
	// payloadAll is the category payload selecting every open ticket.
	payloadAll = "ALL"

	// categoryEscape prefixes feature payloads that would otherwise read as payloadAll.
	categoryEscape = `\`
)

// ErrInvalidAction is returned for tokens that do not parse.
var ErrInvalidAction = errors.New("invalid action")

// Kind is the operation an action asks for.
type Kind int

const (
	KindCategory Kind = iota + 1
	KindTicket
	KindClose
	KindBackToCategories
)

const (
	prefixCategory   = "category:"
	prefixTicket     = "ticket:"
	prefixClose      = "close:"
	tokenBackToStart = "back-to-categories"
)

// Action is a parsed button token.
type Action struct {
	Kind Kind

	// Category is the feature for KindCategory. Unset when All is.
	Category string

	// All selects every open ticket for KindCategory.
	All bool

	// TicketID is set for KindTicket and KindClose.
	TicketID string
}

func CategoryAction(category string) Action {
	return Action{Kind: KindCategory, Category: category}
}

// AllCategoriesAction lists open tickets across every feature.
func AllCategoriesAction() Action {
	return Action{Kind: KindCategory, All: true}
}

func TicketAction(id string) Action {
	return Action{Kind: KindTicket, TicketID: id}
}

func CloseAction(id string) Action {
	return Action{Kind: KindClose, TicketID: id}
}

func BackToCategoriesAction() Action {
	return Action{Kind: KindBackToCategories}
}

// Token encodes the action for a button.
func (a Action) Token() string {
	switch a.Kind {
	case KindCategory:
		if a.All {
			return prefixCategory + payloadAll
		}
		if a.Category == "" {
			return ""
		}
		return prefixCategory + escapeCategory(a.Category)
	case KindTicket:
		return prefixTicket + a.TicketID
	case KindClose:
		return prefixClose + a.TicketID
	case KindBackToCategories:
		return tokenBackToStart
	default:
		return ""
	}
}

// Fits reports whether the encoded token can be carried by a button.
func (a Action) Fits() bool {
	t := a.Token()
	return t != "" && len(t) <= MaxTokenLength
}

// ParseAction decodes a button token.
func ParseAction(token string) (Action, error) {
	if token == "" || len(token) > MaxTokenLength {
		return Action{}, fmt.Errorf("%w: bad length %d", ErrInvalidAction, len(token))
	}

	if token == tokenBackToStart {
		return BackToCategoriesAction(), nil
	}

	prefixes := []struct {
		prefix string
		build  func(string) Action
	}{
		{prefixCategory, parseCategory},
		{prefixTicket, TicketAction},
		{prefixClose, CloseAction},
	}
	for _, p := range prefixes {
		if !strings.HasPrefix(token, p.prefix) {
			continue
		}
		payload := strings.TrimPrefix(token, p.prefix)
		if payload == "" {
			return Action{}, fmt.Errorf("%w: %q has no payload", ErrInvalidAction, token)
		}
		a := p.build(payload)
		if a.Token() != token {
			return Action{}, fmt.Errorf("%w: %q is not canonical", ErrInvalidAction, token)
		}
		return a, nil
	}

	return Action{}, fmt.Errorf("%w: unknown token %q", ErrInvalidAction, token)
}

// escapeCategory keeps a feature literally named like payloadAll apart from the aggregate.
func escapeCategory(feature string) string {
	if feature == payloadAll || strings.HasPrefix(feature, categoryEscape) {
		return categoryEscape + feature
	}
	return feature
}

func parseCategory(payload string) Action {
	if payload == payloadAll {
		return AllCategoriesAction()
	}
	return CategoryAction(strings.TrimPrefix(payload, categoryEscape))
}
