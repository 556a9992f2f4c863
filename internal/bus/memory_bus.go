package bus

import (
	"context"
	"sync"
)

// Memory is an in-process Bus for tests and single-binary setups. Like the
// redis bus it delivers at-most-once: a subscriber whose buffer is full
// misses the event.
type Memory struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[chan Event]struct{})}
}

func (b *Memory) Publish(ctx context.Context, pollID string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *Memory) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
