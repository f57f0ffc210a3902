package cart

import (
	"context"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type mutation struct {
	name string
	// apply receives a private copy of the current lines and reports whether it changed them
	apply   func([]models.CartLineItem) ([]models.CartLineItem, bool)
	persist func(context.Context, []models.CartLineItem) (*models.Cart, error)
	commit  EventKind
}

// mutate runs one optimistic mutation: snapshot, apply locally, persist, then commit the
// server's projection or restore the snapshot.
func (s *Store) mutate(ctx context.Context, m mutation) error {
	s.queue.Lock()
	defer s.queue.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	snapshot := models.CloneItems(s.items)
	snapshotCount := s.itemCount
	s.mu.RUnlock()

	next, changed := m.apply(models.CloneItems(snapshot))
	if !changed {
		return nil
	}
	nextCount := models.CountItems(next)
	s.set(next, nextCount)
	s.publish(EventApplied, next, nextCount, nil)

	remote, err := m.persist(ctx, models.CloneItems(next))
	if s.isClosed() {
		return err
	}
	if err != nil {
		s.set(snapshot, snapshotCount)
		s.publish(EventRolledBack, snapshot, snapshotCount, err)
		s.logger.Warn("cart mutation rolled back", zap.String("op", m.name), zap.Error(err))
		return err
	}

	items, count := projection(remote, next)
	s.set(items, count)
	kind := m.commit
	if kind == "" {
		kind = EventCommitted
	}
	s.publish(kind, items, count, nil)
	return nil
}
