package events

import (
	"context"
	"sync"
	"time"

	"github.com/junaidrashid-git/storefront-api/logging"
)

const deliverTimeout = 10 * time.Second

// Queue hands events to a slow publisher on a background goroutine so callers
// never wait on it. Events that do not fit in the buffer are logged and dropped.
type Queue struct {
	name   string
	next   Publisher
	events chan Event
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func NewQueue(name string, next Publisher, size int) *Queue {
	q := &Queue{
		name:   name,
		next:   next,
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) Publish(_ context.Context, e Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.log(e, "closed", nil)
		return nil
	}
	select {
	case q.events <- e:
	default:
		q.log(e, "dropped", nil)
	}
	return nil
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.events {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := q.next.Publish(ctx, e); err != nil {
			q.log(e, "failed", err)
		}
		cancel()
	}
}

func (q *Queue) log(e Event, status string, err error) {
	f := logging.Fields{Service: "events", Step: q.name, Status: status, BillID: e.BillID, Message: e.Type}
	if err != nil {
		f.Error = err.Error()
	}
	logging.Log(f)
}

// Close stops accepting events and waits for the buffered ones to be delivered, or
// for ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.events)
		q.mu.Unlock()
	})
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
