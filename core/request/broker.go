package request

import "sync"

// Subscription delivers full-list snapshots. C always carries the latest known
// snapshot: if the consumer lags, intermediate snapshots are replaced, never
// queued, so no client-side merge logic is needed.
type Subscription struct {
	C <-chan []ConstanciaRequest

	ch   chan []ConstanciaRequest
	once sync.Once
	b    *broker
}

// Close cancels the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() { s.b.unsubscribe(s) })
}

type broker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[*Subscription]struct{})}
}

func (b *broker) subscribe(snapshot []ConstanciaRequest) *Subscription {
	ch := make(chan []ConstanciaRequest, 1)
	ch <- snapshot

	sub := &Subscription{C: ch, ch: ch, b: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
	close(sub.ch)
}

func (b *broker) publish(snapshot []ConstanciaRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		// drop the undelivered snapshot, if any, and replace it
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snapshot
	}
}
