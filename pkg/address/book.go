// Package address keeps the signed-in customer's address book and the delivery address
// selected for checkout. The API's echo is always taken as the stored address.
package address

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/broadcast"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

var (
	ErrUnknownAddress = errors.New("address: not in address book")
	ErrClosed         = errors.New("address: book closed")
)

type Gateway interface {
	Addresses(ctx context.Context) ([]models.Address, error)
	CreateAddress(ctx context.Context, input models.AddressInput) (*models.Address, error)
	UpdateAddress(ctx context.Context, id string, input models.AddressInput) (*models.Address, error)
	DeleteAddress(ctx context.Context, id string) error
	SetDefaultAddress(ctx context.Context, id string) error
}

// Snapshot is published after every change to the list or the selection.
type Snapshot struct {
	Addresses  []models.Address `json:"addresses"`
	SelectedID string           `json:"selectedId,omitempty"`
}

type Book struct {
	gw Gateway

	queue sync.Mutex

	mu        sync.RWMutex
	addresses []models.Address
	selected  string
	loaded    bool
	closed    bool

	hub    *broadcast.Hub[Snapshot]
	logger *zap.Logger
}

func NewBook(gw Gateway, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{
		gw:     gw,
		hub:    broadcast.NewHub[Snapshot](broadcast.DefaultBuffer, logger),
		logger: logger,
	}
}

func (b *Book) Addresses() []models.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAddresses(b.addresses)
}

// Selected returns the delivery address chosen for checkout, if any.
func (b *Book) Selected() (models.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := indexOf(b.addresses, b.selected); i >= 0 {
		return b.addresses[i], true
	}
	return models.Address{}, false
}

// Loaded reports whether the list has been fetched at least once.
func (b *Book) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

func (b *Book) Subscribe() (<-chan Snapshot, func()) {
	return b.hub.Subscribe()
}

// Load replaces the list with the API's and keeps the selection when it still exists.
func (b *Book) Load(ctx context.Context) error {
	return b.run(ctx, func(ctx context.Context) (func(*Book), error) {
		list, err := b.gw.Addresses(ctx)
		if err != nil {
			return nil, err
		}
		return func(b *Book) {
			b.addresses = cloneAddresses(list)
			b.loaded = true
			b.reselect()
		}, nil
	})
}

func (b *Book) Create(ctx context.Context, input models.AddressInput) (models.Address, error) {
	var created models.Address
	err := b.run(ctx, func(ctx context.Context) (func(*Book), error) {
		echo, err := b.gw.CreateAddress(ctx, input)
		if err != nil {
			return nil, err
		}
		created = *echo
		return func(b *Book) {
			b.addresses = append(b.addresses, created)
			if created.IsDefault {
				b.addresses = models.WithDefault(b.addresses, created.ID)
			}
			b.reselect()
		}, nil
	})
	return created, err
}

func (b *Book) Update(ctx context.Context, id string, input models.AddressInput) (models.Address, error) {
	var updated models.Address
	err := b.run(ctx, func(ctx context.Context) (func(*Book), error) {
		if !b.has(id) {
			return nil, ErrUnknownAddress
		}
		echo, err := b.gw.UpdateAddress(ctx, id, input)
		if err != nil {
			return nil, err
		}
		updated = *echo
		return func(b *Book) {
			if i := indexOf(b.addresses, id); i >= 0 {
				b.addresses[i] = updated
			}
			if updated.IsDefault {
				b.addresses = models.WithDefault(b.addresses, updated.ID)
			}
			b.reselect()
		}, nil
	})
	return updated, err
}

// Delete removes the address. When it was the default the first remaining address
// becomes default, as the API does. A deleted selection falls back to the default,
// then the first address, then none.
func (b *Book) Delete(ctx context.Context, id string) error {
	return b.run(ctx, func(ctx context.Context) (func(*Book), error) {
		if !b.has(id) {
			return nil, ErrUnknownAddress
		}
		if err := b.gw.DeleteAddress(ctx, id); err != nil {
			return nil, err
		}
		return func(b *Book) {
			i := indexOf(b.addresses, id)
			if i < 0 {
				return
			}
			wasDefault := b.addresses[i].IsDefault
			remaining := make([]models.Address, 0, len(b.addresses)-1)
			remaining = append(remaining, b.addresses[:i]...)
			remaining = append(remaining, b.addresses[i+1:]...)
			if wasDefault && len(remaining) > 0 && models.DefaultIndex(remaining) < 0 {
				remaining = models.WithDefault(remaining, remaining[0].ID)
			}
			b.addresses = remaining
			if b.selected == id {
				b.selected = ""
			}
			b.reselect()
		}, nil
	})
}

// SetDefault marks exactly one address as default in a single list replacement.
func (b *Book) SetDefault(ctx context.Context, id string) error {
	return b.run(ctx, func(ctx context.Context) (func(*Book), error) {
		if !b.has(id) {
			return nil, ErrUnknownAddress
		}
		if err := b.gw.SetDefaultAddress(ctx, id); err != nil {
			return nil, err
		}
		return func(b *Book) {
			b.addresses = models.WithDefault(b.addresses, id)
		}, nil
	})
}

// Select chooses the delivery address for checkout. No request is made.
func (b *Book) Select(id string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if indexOf(b.addresses, id) < 0 {
		b.mu.Unlock()
		return ErrUnknownAddress
	}
	b.selected = id
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.hub.Publish(snap)
	return nil
}

func (b *Book) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.hub.Close()
}

// run serializes one gateway call and applies its result under a single lock, unless
// the book was closed while the call was in flight.
func (b *Book) run(ctx context.Context, call func(context.Context) (func(*Book), error)) error {
	b.queue.Lock()
	defer b.queue.Unlock()

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	apply, err := call(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnknownAddress) {
			b.logger.Warn("address book update failed", zap.Error(err))
		}
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	apply(b)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.hub.Publish(snap)
	return nil
}

func (b *Book) has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return indexOf(b.addresses, id) >= 0
}

// reselect keeps a valid selection, else picks the default, the first address or none.
func (b *Book) reselect() {
	if indexOf(b.addresses, b.selected) >= 0 {
		return
	}
	switch {
	case models.DefaultIndex(b.addresses) >= 0:
		b.selected = b.addresses[models.DefaultIndex(b.addresses)].ID
	case len(b.addresses) > 0:
		b.selected = b.addresses[0].ID
	default:
		b.selected = ""
	}
}

func (b *Book) snapshotLocked() Snapshot {
	return Snapshot{Addresses: cloneAddresses(b.addresses), SelectedID: b.selected}
}

func indexOf(addresses []models.Address, id string) int {
	if id == "" {
		return -1
	}
	for i := range addresses {
		if addresses[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAddresses(in []models.Address) []models.Address {
	if in == nil {
		return []models.Address{}
	}
	out := make([]models.Address, len(in))
	copy(out, in)
	return out
}
