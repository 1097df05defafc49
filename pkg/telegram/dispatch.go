package telegram

import (
	"context"
	"sync"

	"github.com/Jacobbrewer1/triage/pkg/chat"
)

// chatQueue runs events for one chat in arrival order while different chats run concurrently.
type chatQueue struct {
	handle func(ctx context.Context, ev *chat.Event)

	mut     sync.Mutex
	pending map[int64][]*chat.Event
	wg      sync.WaitGroup
}

func newChatQueue(handle func(ctx context.Context, ev *chat.Event)) *chatQueue {
	return &chatQueue{
		handle:  handle,
		pending: make(map[int64][]*chat.Event),
	}
}

// push queues ev behind any events already waiting for its chat.
func (q *chatQueue) push(ctx context.Context, ev *chat.Event) {
	q.mut.Lock()
	if waiting, busy := q.pending[ev.ChatID]; busy {
		q.pending[ev.ChatID] = append(waiting, ev)
		q.mut.Unlock()
		return
	}
	q.pending[ev.ChatID] = []*chat.Event{}
	q.mut.Unlock()

	q.wg.Add(1)
	go q.drain(ctx, ev)
}

func (q *chatQueue) drain(ctx context.Context, ev *chat.Event) {
	defer q.wg.Done()

	for {
		q.handle(ctx, ev)

		q.mut.Lock()
		waiting := q.pending[ev.ChatID]
		if len(waiting) == 0 {
			delete(q.pending, ev.ChatID)
			q.mut.Unlock()
			return
		}
		next := waiting[0]
		q.pending[ev.ChatID] = waiting[1:]
		q.mut.Unlock()

		ev = next
	}
}

// wait blocks until every queued event has been handled.
func (q *chatQueue) wait() {
	q.wg.Wait()
}
