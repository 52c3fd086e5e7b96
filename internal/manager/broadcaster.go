package manager

import (
	"sync"

	"orderhash/internal/metrics"
)

// Broadcaster fans events out to registered receivers. A receiver that is not
// ready to accept an event misses it rather than blocking the others.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    uint64
	closed    bool
	receivers map[uint64]chan []byte
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		receivers: make(map[uint64]chan []byte),
	}
}

// RegisterReceiver adds receiver and returns its ID. Registering on a closed
// broadcaster closes receiver immediately.
func (b *Broadcaster) RegisterReceiver(receiver chan []byte) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.closed {
		close(receiver)
		return id
	}

	b.receivers[id] = receiver
	metrics.StreamSubscribers.Inc()
	return id
}

func (b *Broadcaster) UnregisterReceiver(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if receiver, exists := b.receivers[id]; exists {
		close(receiver)
		delete(b.receivers, id)
		metrics.StreamSubscribers.Dec()
	}
}

func (b *Broadcaster) Broadcast(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, receiver := range b.receivers {
		select {
		case receiver <- message:
		default:
		}
	}
}

func (b *Broadcaster) Receivers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.receivers)
}

func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, receiver := range b.receivers {
		close(receiver)
		delete(b.receivers, id)
		metrics.StreamSubscribers.Dec()
	}
	b.closed = true
}
