// Package cart holds the session's view of the backend cart. Every mutation is applied
// locally first, then persisted by sending the whole resulting list, and rolled back to
// the exact prior list if persisting fails.
package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/broadcast"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

var (
	ErrClosed          = errors.New("cart: store closed")
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

// Gateway is the part of the API client the store persists through.
type Gateway interface {
	Cart(ctx context.Context) (*models.Cart, error)
	SaveCart(ctx context.Context, items []models.CartLineItem) (*models.Cart, error)
	ClearCart(ctx context.Context) error
}

type Store struct {
	gw Gateway

	// queue serializes mutations and refreshes, held across the gateway call
	queue sync.Mutex

	mu        sync.RWMutex
	items     []models.CartLineItem
	itemCount int
	closed    bool

	hub    *broadcast.Hub[Event]
	buffer int
	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithEventBuffer sets how many events a slow subscriber may lag behind.
func WithEventBuffer(n int) Option {
	return func(s *Store) { s.buffer = n }
}

func NewStore(gw Gateway, opts ...Option) *Store {
	s := &Store{gw: gw, buffer: broadcast.DefaultBuffer, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.hub = broadcast.NewHub[Event](s.buffer, s.logger)
	return s
}

// Items returns a copy of the current lines, including optimistic changes in flight.
func (s *Store) Items() []models.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneItems(s.items)
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCount
}

// Subscribe delivers an Event after every optimistic apply, commit, rollback and refresh.
func (s *Store) Subscribe() (<-chan Event, func()) {
	return s.hub.Subscribe()
}

// AddItem merges quantity into the product's existing line or appends a new one.
func (s *Store) AddItem(ctx context.Context, product models.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, mutation{
		name: "add",
		apply: func(items []models.CartLineItem) ([]models.CartLineItem, bool) {
			if i := models.FindItem(items, product.ID); i >= 0 {
				items[i].Quantity += quantity
				return items, true
			}
			return append(items, models.LineItemFromProduct(product, quantity)), true
		},
		persist: s.gw.SaveCart,
	})
}

// UpdateQuantity is a no-op for quantities below 1 and for products not in the cart.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	return s.mutate(ctx, mutation{
		name: "update",
		apply: func(items []models.CartLineItem) ([]models.CartLineItem, bool) {
			i := models.FindItem(items, productID)
			if i < 0 || items[i].Quantity == quantity {
				return items, false
			}
			items[i].Quantity = quantity
			return items, true
		},
		persist: s.gw.SaveCart,
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, mutation{
		name: "remove",
		apply: func(items []models.CartLineItem) ([]models.CartLineItem, bool) {
			i := models.FindItem(items, productID)
			if i < 0 {
				return items, false
			}
			return append(items[:i], items[i+1:]...), true
		},
		persist: s.gw.SaveCart,
	})
}

// Clear empties the cart through the API's destructive clear endpoint.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, mutation{
		name:   "clear",
		commit: EventCleared,
		apply: func([]models.CartLineItem) ([]models.CartLineItem, bool) {
			return []models.CartLineItem{}, true
		},
		persist: func(ctx context.Context, _ []models.CartLineItem) (*models.Cart, error) {
			if err := s.gw.ClearCart(ctx); err != nil {
				return nil, err
			}
			return &models.Cart{Items: []models.CartLineItem{}}, nil
		},
	})
}

// Refresh replaces local state with the API's cart.
func (s *Store) Refresh(ctx context.Context) error {
	s.queue.Lock()
	defer s.queue.Unlock()
	if s.isClosed() {
		return ErrClosed
	}

	remote, err := s.gw.Cart(ctx)
	if err != nil {
		return err
	}
	if s.isClosed() {
		return nil
	}
	items, count := projection(remote, nil)
	s.set(items, count)
	s.publish(EventRefreshed, items, count, nil)
	return nil
}

// Close stops event delivery. Responses arriving afterwards are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Close()
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) set(items []models.CartLineItem, count int) {
	s.mu.Lock()
	s.items = items
	s.itemCount = count
	s.mu.Unlock()
}

func (s *Store) publish(kind EventKind, items []models.CartLineItem, count int, err error) {
	s.hub.Publish(Event{Kind: kind, Items: models.CloneItems(items), ItemCount: count, Err: err})
}

// projection takes the server's echo when it carries items, else the locally sent list.
func projection(remote *models.Cart, sent []models.CartLineItem) ([]models.CartLineItem, int) {
	if remote == nil || remote.Items == nil {
		items := models.CloneItems(sent)
		if items == nil {
			items = []models.CartLineItem{}
		}
		return items, models.CountItems(items)
	}
	items := models.CloneItems(remote.Items)
	count := remote.ItemCount
	if count == 0 {
		count = models.CountItems(items)
	}
	return items, count
}
