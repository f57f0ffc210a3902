package cart

import "julianmorley.ca/con-plar/storefront/pkg/models"

type EventKind string

const (
	EventApplied    EventKind = "applied"
	EventCommitted  EventKind = "committed"
	EventRolledBack EventKind = "rolled_back"
	EventRefreshed  EventKind = "refreshed"
	EventCleared    EventKind = "cleared"
)

// Event is the cart-changed signal. Err is set on rollbacks.
type Event struct {
	Kind      EventKind             `json:"kind"`
	Items     []models.CartLineItem `json:"items"`
	ItemCount int                   `json:"itemCount"`
	Err       error                 `json:"-"`
}

// Message is the user-facing note for a rollback, empty otherwise.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return "We couldn't update your cart. Your previous cart has been restored."
}
