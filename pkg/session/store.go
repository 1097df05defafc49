package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ActiveSessions is the number of live entries per store.
var ActiveSessions = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "session_store_active_entries",
		Help: "Number of live conversation sessions",
	},
	[]string{"store"},
)

// EvictedSessions is the number of entries removed for being idle too long.
var EvictedSessions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "session_store_evicted_entries",
		Help: "Number of conversation sessions evicted after their TTL",
	},
	[]string{"store"},
)

type entry[T any] struct {
	// mut serialises work on one key.
	mut sync.Mutex

	// refs counts callers holding or waiting on mut. Guarded by the store lock.
	refs int

	value   T
	present bool
	touched time.Time
}

// Store holds per-user values. Work on one key is serialised while different keys proceed independently.
// Idle entries are evicted once they are older than the TTL.
type Store[T any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mut     sync.Mutex
	entries map[int64]*entry[T]
}

// NewStore creates a store. A zero ttl disables eviction; a nil now uses time.Now.
func NewStore[T any](name string, ttl time.Duration, now func() time.Time) *Store[T] {
	if now == nil {
		now = time.Now
	}
	return &Store[T]{
		name:    name,
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]*entry[T]),
	}
}

func (s *Store[T]) acquire(key int64) *entry[T] {
	s.mut.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = new(entry[T])
		s.entries[key] = e
	}
	e.refs++
	s.mut.Unlock()

	e.mut.Lock()
	return e
}

func (s *Store[T]) release(key int64, e *entry[T]) {
	e.mut.Unlock()

	s.mut.Lock()
	defer s.mut.Unlock()

	e.refs--
	if e.refs == 0 && !e.present {
		delete(s.entries, key)
	}
	ActiveSessions.WithLabelValues(s.name).Set(float64(len(s.entries)))
}

// With runs fn with exclusive access to the value for key. fn receives the zero value when the key is absent.
// When fn returns false the value is dropped, otherwise it is kept and its TTL restarts.
func (s *Store[T]) With(key int64, fn func(value *T) (keep bool)) {
	e := s.acquire(key)
	defer s.release(key, e)

	if !e.present {
		var zero T
		e.value = zero
	}

	if fn(&e.value) {
		e.present = true
		e.touched = s.now()
		return
	}

	var zero T
	e.value = zero
	e.present = false
}

// Get returns a copy of the value for key without restarting its TTL.
func (s *Store[T]) Get(key int64) (T, bool) {
	e := s.acquire(key)
	defer s.release(key, e)

	if !e.present {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Delete drops the value for key.
func (s *Store[T]) Delete(key int64) {
	s.With(key, func(*T) bool { return false })
}

// Len returns the number of live entries.
func (s *Store[T]) Len() int {
	s.mut.Lock()
	defer s.mut.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.present {
			n++
		}
	}
	return n
}

// Sweep evicts idle entries older than the TTL and returns how many were removed. Busy entries are skipped.
func (s *Store[T]) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if e.refs > 0 {
			continue
		}
		if now.Sub(e.touched) >= s.ttl {
			delete(s.entries, key)
			evicted++
		}
	}

	EvictedSessions.WithLabelValues(s.name).Add(float64(evicted))
	ActiveSessions.WithLabelValues(s.name).Set(float64(len(s.entries)))
	return evicted
}

// Run sweeps the store every interval until ctx is done.
func (s *Store[T]) Run(ctx context.Context, l *slog.Logger, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				l.Debug("Evicted idle sessions",
					slog.String("store", s.name),
					slog.Int("count", n),
				)
			}
		}
	}
}
