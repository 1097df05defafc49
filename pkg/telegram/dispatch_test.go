package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/stretchr/testify/require"
)

func TestChatQueue_OrderPerChat(t *testing.T) {
	var (
		mut  sync.Mutex
		seen = make(map[int64][]string)
	)
	q := newChatQueue(func(_ context.Context, ev *chat.Event) {
		time.Sleep(time.Millisecond)
		mut.Lock()
		defer mut.Unlock()
		seen[ev.ChatID] = append(seen[ev.ChatID], ev.Text)
	})

	want := []string{"a", "b", "c", "d", "e"}
	for _, text := range want {
		for chatID := int64(1); chatID <= 3; chatID++ {
			q.push(context.Background(), &chat.Event{ChatID: chatID, Text: text})
		}
	}
	q.wait()

	for chatID := int64(1); chatID <= 3; chatID++ {
		require.Equal(t, want, seen[chatID])
	}
	require.Empty(t, q.pending)
}

func TestChatQueue_ChatsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan int64, 2)

	q := newChatQueue(func(_ context.Context, ev *chat.Event) {
		started <- ev.ChatID
		<-release
	})

	q.push(context.Background(), &chat.Event{ChatID: 1})
	q.push(context.Background(), &chat.Event{ChatID: 2})

	// Both chats start before either finishes.
	got := map[int64]bool{<-started: true, <-started: true}
	require.Equal(t, map[int64]bool{1: true, 2: true}, got)

	close(release)
	q.wait()
}
