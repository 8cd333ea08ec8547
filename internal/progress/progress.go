// Package progress reports the advancement of long-running tasks, such as
// profile downloads, to any number of consumers.
package progress

import (
	"context"
	"sync"

	"github.com/kilianp07/clover/core/logger"
)

// Event reports that Done of Total steps of Task are complete.
type Event struct {
	Task  string
	Done  int
	Total int
}

// Finished reports whether the task is complete.
func (e Event) Finished() bool { return e.Total > 0 && e.Done >= e.Total }

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// that falls behind misses events.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

func NewBus() *Bus { return &Bus{} }

// Publish sends e to every subscriber. It is a no-op on a nil or closed bus.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel receiving subsequent events.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Tracker counts the steps of one task and publishes each one.
type Tracker struct {
	bus   *Bus
	task  string
	total int

	mu   sync.Mutex
	done int
}

// Track starts a task of total steps and publishes its initial state.
func (b *Bus) Track(task string, total int) *Tracker {
	t := &Tracker{bus: b, task: task, total: total}
	b.Publish(Event{Task: task, Total: total})
	return t
}

// Step marks one more step as complete.
func (t *Tracker) Step() {
	t.mu.Lock()
	t.done++
	ev := Event{Task: t.task, Done: t.done, Total: t.total}
	t.mu.Unlock()
	t.bus.Publish(ev)
}

// Log writes every event to log until ctx is done or the bus closes. It
// returns once the subscription has ended.
func Log(ctx context.Context, b *Bus, log logger.Logger) {
	log = logger.OrNop(log)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if ev.Total > 0 {
				log.Infof("%s: %d/%d (%d%%)", ev.Task, ev.Done, ev.Total, 100*ev.Done/ev.Total)
			} else {
				log.Infof("%s: %d", ev.Task, ev.Done)
			}
		}
	}
}
