// Package broadcast fans out change signals to any number of subscribers without
// coupling the publisher to them.
package broadcast

import (
	"sync"

	"go.uber.org/zap"
)

const DefaultBuffer = 16

// Hub delivers each published value to every current subscriber. A subscriber whose
// buffer is full misses that value; publishers never block.
type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[int]chan T
	nextID int
	buffer int
	closed bool
	logger *zap.Logger
}

func NewHub[T any](buffer int, logger *zap.Logger) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub[T]{
		subs:   make(map[int]chan T),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe returns a receive channel and a cancel func. The channel is closed by
// cancel or by Close. Subscribing to a closed hub yields an already closed channel.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for id, ch := range h.subs {
		select {
		case ch <- v:
		default:
			h.logger.Debug("subscriber buffer full, dropping signal", zap.Int("subscriber", id))
		}
	}
}

func (h *Hub[T]) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
