package dataaccess

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/Jacobbrewer1/triage/pkg/logging"
)

const memoryDalName = "memory_store"

type memoryTicket struct {
	ticket   entities.Ticket
	reporter int64

	// seq orders tickets created at the same instant.
	seq int
}

type memoryStore struct {
	l *slog.Logger

	mut     sync.RWMutex
	users   map[int64]*entities.User
	tickets map[string]*memoryTicket
	seq     int
}

// NewMemoryStore creates a ticket store held in process memory.
func NewMemoryStore(l *slog.Logger) TicketStore {
	return &memoryStore{
		l:       l.With(slog.String(logging.KeyDal, memoryDalName)),
		users:   make(map[int64]*entities.User),
		tickets: make(map[string]*memoryTicket),
	}
}

func (s *memoryStore) UpsertUser(_ context.Context, user entities.User, now time.Time) error {
	defer observe(memoryDalName, "upsert_user")()

	s.mut.Lock()
	defer s.mut.Unlock()

	s.upsertLocked(user, now, true)
	return nil
}

// upsertLocked merges the user. When refresh is false an existing user is left untouched.
func (s *memoryStore) upsertLocked(user entities.User, now time.Time, refresh bool) {
	existing, ok := s.users[user.ID]
	if !ok {
		u := user
		u.CreatedAt = now
		u.LastActiveAt = now
		s.users[user.ID] = &u
		return
	}
	if !refresh {
		return
	}
	existing.Handle = user.Handle
	existing.FirstName = user.FirstName
	existing.LastActiveAt = now
}

func (s *memoryStore) CreateTicket(_ context.Context, t entities.NewTicket, now time.Time) (string, error) {
	defer observe(memoryDalName, "create_ticket")()

	if err := validateNewTicket(t); err != nil {
		return "", err
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	s.upsertLocked(t.Reporter, now, false)

	s.seq++
	id := newTicketID()
	s.tickets[id] = &memoryTicket{
		ticket: entities.Ticket{
			ID:          id,
			Feature:     t.Feature,
			CourseCode:  t.CourseCode,
			Description: t.Description,
			Status:      entities.TicketStatusOpen,
			CreatedAt:   now,
		},
		reporter: t.Reporter.ID,
		seq:      s.seq,
	}
	return id, nil
}

func (s *memoryStore) ListOpenByFeature(_ context.Context, feature string) ([]*entities.Ticket, error) {
	defer observe(memoryDalName, "list_open_by_feature")()

	return s.listOpen(func(t *entities.Ticket) bool { return t.Feature == feature }), nil
}

func (s *memoryStore) ListAllOpen(_ context.Context) ([]*entities.Ticket, error) {
	defer observe(memoryDalName, "list_all_open")()

	return s.listOpen(func(*entities.Ticket) bool { return true }), nil
}

func (s *memoryStore) listOpen(match func(*entities.Ticket) bool) []*entities.Ticket {
	s.mut.RLock()
	defer s.mut.RUnlock()

	found := make([]*memoryTicket, 0)
	for _, mt := range s.tickets {
		if mt.ticket.IsOpen() && match(&mt.ticket) {
			found = append(found, mt)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].ticket.CreatedAt.Equal(found[j].ticket.CreatedAt) {
			return found[i].ticket.CreatedAt.After(found[j].ticket.CreatedAt)
		}
		return found[i].seq > found[j].seq
	})

	tickets := make([]*entities.Ticket, 0, len(found))
	for _, mt := range found {
		tickets = append(tickets, s.joinLocked(mt))
	}
	return tickets
}

// joinLocked copies the ticket with its reporter attached.
func (s *memoryStore) joinLocked(mt *memoryTicket) *entities.Ticket {
	t := mt.ticket
	if mt.ticket.ClosedAt != nil {
		c := *mt.ticket.ClosedAt
		t.ClosedAt = &c
	}
	if u, ok := s.users[mt.reporter]; ok {
		t.Reporter = *u
	}
	return &t
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*entities.Ticket, error) {
	defer observe(memoryDalName, "get_by_id")()

	s.mut.RLock()
	defer s.mut.RUnlock()

	mt, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.joinLocked(mt), nil
}

func (s *memoryStore) CloseTicket(_ context.Context, id string, now time.Time) (string, error) {
	defer observe(memoryDalName, "close_ticket")()

	s.mut.Lock()
	defer s.mut.Unlock()

	mt, ok := s.tickets[id]
	if !ok {
		return "", ErrNotFound
	}
	closedAt := now
	mt.ticket.Status = entities.TicketStatusClosed
	mt.ticket.ClosedAt = &closedAt
	return mt.ticket.Feature, nil
}

func (s *memoryStore) CountsByFeature(_ context.Context) (map[string]int64, error) {
	defer observe(memoryDalName, "counts_by_feature")()

	s.mut.RLock()
	defer s.mut.RUnlock()

	counts := make(map[string]int64)
	for _, mt := range s.tickets {
		if mt.ticket.IsOpen() {
			counts[mt.ticket.Feature]++
		}
	}
	return counts, nil
}

func (s *memoryStore) OverallCounts(_ context.Context) (*entities.Counts, error) {
	defer observe(memoryDalName, "overall_counts")()

	s.mut.RLock()
	defer s.mut.RUnlock()

	counts := new(entities.Counts)
	for _, mt := range s.tickets {
		counts.Total++
		if mt.ticket.IsOpen() {
			counts.Open++
		} else {
			counts.Closed++
		}
	}
	return counts, nil
}

func (s *memoryStore) UserCount(_ context.Context) (int64, error) {
	defer observe(memoryDalName, "user_count")()

	s.mut.RLock()
	defer s.mut.RUnlock()

	return int64(len(s.users)), nil
}

func (s *memoryStore) FindUserByHandle(_ context.Context, handle string) (*entities.User, error) {
	defer observe(memoryDalName, "find_user_by_handle")()

	s.mut.RLock()
	defer s.mut.RUnlock()

	var found *entities.User
	for _, u := range s.users {
		if handle == "" || !strings.EqualFold(u.Handle, handle) {
			continue
		}
		if found == nil || u.LastActiveAt.After(found.LastActiveAt) {
			found = u
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	u := *found
	return &u, nil
}

func (s *memoryStore) Ping(context.Context) error {
	return nil
}

func (s *memoryStore) Migrate(context.Context) error {
	s.l.Debug("Memory store has no schema to migrate")
	return nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
