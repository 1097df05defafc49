package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mut sync.Mutex
	t   time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.t = c.t.Add(d)
}

func TestStore_With(t *testing.T) {
	s := NewStore[string]("tests", time.Minute, nil)

	s.With(1, func(v *string) bool {
		require.Equal(t, "", *v)
		*v = "hello"
		return true
	})

	got, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, "hello", got)

	_, ok = s.Get(2)
	require.False(t, ok)
	require.Equal(t, 1, s.Len())

	s.With(1, func(v *string) bool {
		require.Equal(t, "hello", *v)
		return false
	})

	_, ok = s.Get(1)
	require.False(t, ok)
	require.Equal(t, 0, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s := NewStore[int]("tests", 0, nil)
	s.With(5, func(v *int) bool { *v = 3; return true })

	s.Delete(5)

	_, ok := s.Get(5)
	require.False(t, ok)
}

func TestStore_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore[int]("tests", 30*time.Minute, clock.Now)

	s.With(1, func(v *int) bool { *v = 1; return true })
	clock.Advance(20 * time.Minute)
	s.With(2, func(v *int) bool { *v = 2; return true })
	clock.Advance(15 * time.Minute)

	require.Equal(t, 1, s.Sweep(clock.Now()))

	_, ok := s.Get(1)
	require.False(t, ok, "idle entry is evicted")
	v, ok := s.Get(2)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestStore_Sweep_SkipsBusyEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore[int]("tests", time.Minute, clock.Now)
	s.With(1, func(v *int) bool { *v = 1; return true })
	clock.Advance(time.Hour)

	s.With(1, func(v *int) bool {
		require.Equal(t, 0, s.Sweep(clock.Now()))
		return true
	})

	// Touched again by the With above.
	require.Equal(t, 0, s.Sweep(clock.Now()))
}

func TestStore_Sweep_Disabled(t *testing.T) {
	s := NewStore[int]("tests", 0, nil)
	s.With(1, func(v *int) bool { return true })
	require.Equal(t, 0, s.Sweep(time.Now().Add(24*time.Hour)))
}

func TestStore_SerialisesSameKey(t *testing.T) {
	s := NewStore[int]("tests", time.Minute, nil)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.With(1, func(v *int) bool {
				cur := *v
				time.Sleep(time.Microsecond)
				*v = cur + 1
				return true
			})
		}()
	}
	wg.Wait()

	v, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, workers, v)
}
