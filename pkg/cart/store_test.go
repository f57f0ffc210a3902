package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

var errBackend = errors.New("backend unavailable")

// fakeGateway echoes saved carts. failNext makes the next save fail; gate, when set,
// blocks each save until a value is received.
type fakeGateway struct {
	mu       sync.Mutex
	remote   []models.CartLineItem
	saves    [][]models.CartLineItem
	clears   int
	failNext []bool
	gate     chan struct{}
	entered  chan struct{}
	fetchErr error
	noEcho   bool
}

func (f *fakeGateway) Cart(context.Context) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	items := models.CloneItems(f.remote)
	return &models.Cart{Items: items, ItemCount: models.CountItems(items)}, nil
}

func (f *fakeGateway) SaveCart(ctx context.Context, items []models.CartLineItem) (*models.Cart, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, models.CloneItems(items))
	if len(f.failNext) > 0 {
		fail := f.failNext[0]
		f.failNext = f.failNext[1:]
		if fail {
			return nil, errBackend
		}
	}
	f.remote = models.CloneItems(items)
	if f.noEcho {
		return &models.Cart{}, nil
	}
	return &models.Cart{Items: models.CloneItems(items), ItemCount: models.CountItems(items)}, nil
}

func (f *fakeGateway) ClearCart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if len(f.failNext) > 0 {
		fail := f.failNext[0]
		f.failNext = f.failNext[1:]
		if fail {
			return errBackend
		}
	}
	f.remote = nil
	return nil
}

func (f *fakeGateway) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

var (
	shirt = models.Product{ID: "p1", Name: "Shirt", Price: 100, Images: []string{"shirt.jpg"}}
	scarf = models.Product{ID: "p2", Name: "Scarf", Price: 50}
)

func TestAddItem_MergesQuantities(t *testing.T) {
	for _, q := range [][2]int{{1, 1}, {2, 3}, {5, 10}} {
		store := NewStore(&fakeGateway{})
		ctx := context.Background()

		require.NoError(t, store.AddItem(ctx, shirt, q[0]))
		require.NoError(t, store.AddItem(ctx, shirt, q[1]))

		items := store.Items()
		require.Len(t, items, 1)
		assert.Equal(t, q[0]+q[1], items[0].Quantity)
		assert.Equal(t, "shirt.jpg", items[0].Image)
		assert.Equal(t, q[0]+q[1], store.ItemCount())
	}
}

func TestAddItem_RejectsQuantityBelowOne(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)

	assert.ErrorIs(t, store.AddItem(context.Background(), shirt, 0), ErrInvalidQuantity)
	assert.Equal(t, 0, gw.saveCount())
}

func TestUpdateQuantity_BelowOneIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, shirt, 2))
	before := store.Items()

	for _, q := range []int{0, -1, -100} {
		require.NoError(t, store.UpdateQuantity(ctx, "p1", q))
	}

	assert.Equal(t, before, store.Items())
	assert.Equal(t, 1, gw.saveCount(), "only the add reached the gateway")
}

func TestUpdateAndRemove_UnknownProductIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, shirt, 1))

	require.NoError(t, store.UpdateQuantity(ctx, "missing", 4))
	require.NoError(t, store.RemoveItem(ctx, "missing"))

	assert.Equal(t, 1, gw.saveCount())
}

func TestFailedPersistRestoresExactSnapshot(t *testing.T) {
	ops := map[string]func(*Store) error{
		"add":    func(s *Store) error { return s.AddItem(context.Background(), scarf, 1) },
		"merge":  func(s *Store) error { return s.AddItem(context.Background(), shirt, 3) },
		"update": func(s *Store) error { return s.UpdateQuantity(context.Background(), "p1", 9) },
		"remove": func(s *Store) error { return s.RemoveItem(context.Background(), "p1") },
		"clear":  func(s *Store) error { return s.Clear(context.Background()) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{}
			store := NewStore(gw)
			require.NoError(t, store.AddItem(context.Background(), shirt, 2))
			before := store.Items()
			beforeCount := store.ItemCount()

			events, cancel := store.Subscribe()
			defer cancel()

			gw.failNext = []bool{true}
			err := op(store)

			assert.ErrorIs(t, err, errBackend)
			assert.Equal(t, before, store.Items())
			assert.Equal(t, beforeCount, store.ItemCount())

			applied := <-events
			assert.Equal(t, EventApplied, applied.Kind)
			rolledBack := <-events
			assert.Equal(t, EventRolledBack, rolledBack.Kind)
			assert.Equal(t, before, rolledBack.Items)
			assert.NotEmpty(t, rolledBack.Message())
		})
	}
}

func TestRollbackOnFirstMutationRestoresEmptyCart(t *testing.T) {
	gw := &fakeGateway{failNext: []bool{true}}
	store := NewStore(gw)

	err := store.AddItem(context.Background(), shirt, 1)

	assert.Error(t, err)
	assert.Empty(t, store.Items())
	assert.Equal(t, 0, store.ItemCount())
}

func TestOptimisticStateVisibleBeforePersistCompletes(t *testing.T) {
	gw := &fakeGateway{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	store := NewStore(gw)

	done := make(chan error, 1)
	go func() { done <- store.AddItem(context.Background(), shirt, 2) }()

	<-gw.entered
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	close(gw.gate)
	require.NoError(t, <-done)
}

func TestConcurrentMutations_RollbackUsesOwnSnapshot(t *testing.T) {
	gw := &fakeGateway{gate: make(chan struct{}), entered: make(chan struct{}, 2)}
	store := NewStore(gw)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- store.AddItem(ctx, shirt, 1) }()
	<-gw.entered

	second := make(chan error, 1)
	go func() { second <- store.AddItem(ctx, scarf, 1) }()

	// the second mutation waits for the first to settle
	select {
	case <-gw.entered:
		t.Fatal("second persist started while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	gw.mu.Lock()
	gw.failNext = []bool{false, true}
	gw.mu.Unlock()

	gw.gate <- struct{}{}
	require.NoError(t, <-first)

	<-gw.entered
	gw.gate <- struct{}{}
	assert.ErrorIs(t, <-second, errBackend)

	items := store.Items()
	require.Len(t, items, 1, "rollback restores the state right before the failed mutation")
	assert.Equal(t, "p1", items[0].ProductID)
}

func TestCommitTakesServerProjection(t *testing.T) {
	gw := &fakeGateway{noEcho: true}
	store := NewStore(gw)

	require.NoError(t, store.AddItem(context.Background(), shirt, 2))

	items := store.Items()
	require.Len(t, items, 1, "empty echo keeps the sent list")
	assert.Equal(t, 2, store.ItemCount())
}

func TestClear(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw)
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, shirt, 1))

	events, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.Items())
	assert.Equal(t, 0, store.ItemCount())
	assert.Equal(t, 1, gw.clears)
	assert.Equal(t, EventApplied, (<-events).Kind)
	assert.Equal(t, EventCleared, (<-events).Kind)
}

func TestRefresh(t *testing.T) {
	gw := &fakeGateway{remote: []models.CartLineItem{{ProductID: "p9", Quantity: 4}}}
	store := NewStore(gw)

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, 4, store.ItemCount())

	gw.fetchErr = errBackend
	assert.ErrorIs(t, store.Refresh(context.Background()), errBackend)
	assert.Len(t, store.Items(), 1, "a failed refresh keeps the current state")
}

func TestClose_DiscardsLateResponse(t *testing.T) {
	gw := &fakeGateway{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	store := NewStore(gw)
	events, _ := store.Subscribe()

	done := make(chan error, 1)
	go func() { done <- store.AddItem(context.Background(), shirt, 1) }()
	<-gw.entered
	assert.Equal(t, EventApplied, (<-events).Kind)

	store.Close()
	close(gw.gate)
	require.NoError(t, <-done)

	_, open := <-events
	assert.False(t, open)
	assert.ErrorIs(t, store.AddItem(context.Background(), shirt, 1), ErrClosed)
	assert.ErrorIs(t, store.Refresh(context.Background()), ErrClosed)
}

func TestNewStore_EventBufferUsesLaterLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := NewStore(&fakeGateway{}, WithEventBuffer(1), WithLogger(zap.New(core)))
	_, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.AddItem(context.Background(), shirt, 1))

	assert.NotZero(t, logs.FilterMessage("subscriber buffer full, dropping signal").Len())
}
