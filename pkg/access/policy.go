package access

import (
	"strings"

	"github.com/Jacobbrewer1/triage/pkg/entities"
)

// Policy decides whether a user may use the administrator views.
type Policy interface {
	Allowed(user entities.User) bool
}

// PolicyFunc adapts a function to a Policy.
type PolicyFunc func(user entities.User) bool

func (f PolicyFunc) Allowed(user entities.User) bool {
	return f(user)
}

// AllowList allows users by handle. Telegram handles are case-insensitive, so the comparison is too.
type AllowList struct {
	handles map[string]struct{}
}

// NewAllowList creates an allow list. A leading "@" on a handle is ignored.
func NewAllowList(handles ...string) *AllowList {
	a := &AllowList{handles: make(map[string]struct{}, len(handles))}
	for _, h := range handles {
		if h = NormaliseHandle(h); h != "" {
			a.handles[strings.ToLower(h)] = struct{}{}
		}
	}
	return a
}

// Allowed reports whether the user's handle is on the list. Users without a handle are never allowed.
func (a *AllowList) Allowed(user entities.User) bool {
	if user.Handle == "" {
		return false
	}
	_, ok := a.handles[strings.ToLower(NormaliseHandle(user.Handle))]
	return ok
}

// Handles returns the handles on the list.
func (a *AllowList) Handles() []string {
	out := make([]string, 0, len(a.handles))
	for h := range a.handles {
		out = append(out, h)
	}
	return out
}

// NormaliseHandle trims whitespace and the leading "@". Case is kept.
func NormaliseHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}

// ParseHandles splits a comma separated list of handles.
func ParseHandles(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = NormaliseHandle(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
