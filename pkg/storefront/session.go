// Package storefront assembles the per-browser-session state: an API client bound to
// the session's token, the cart store, the address book and the checkout.
package storefront

import (
	"context"
	"time"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/address"
	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/checkout"
	"julianmorley.ca/con-plar/storefront/pkg/coupon"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/pricing"
	"julianmorley.ca/con-plar/storefront/pkg/session"
)

type Session struct {
	ID        string
	Gateway   *gateway.Client
	Cart      *cart.Store
	Addresses *address.Book
	Checkout  *checkout.Session

	lastSeen time.Time
}

func newSession(id string, gw *gateway.Client, taxRate float64, logger *zap.Logger) *Session {
	logger = logger.With(zap.String("session", id))
	store := cart.NewStore(gw, cart.WithLogger(logger))
	book := address.NewBook(gw, logger)
	return &Session{
		ID:        id,
		Gateway:   gw,
		Cart:      store,
		Addresses: book,
		Checkout: checkout.NewSession(store, book, coupon.NewValidator(gw, logger),
			pricing.NewCalculator(taxRate), gw, logger),
	}
}

// Claims decodes the stored token for display decisions. ok is false when signed out,
// when the token cannot be decoded or when it has expired.
func (s *Session) Claims(ctx context.Context) (session.Claims, bool) {
	token, err := s.Gateway.Tokens().GetToken(ctx)
	if err != nil || token == "" {
		return session.Claims{}, false
	}
	claims, err := session.DecodeClaims(token)
	if err != nil || claims.Expired(time.Now()) {
		return session.Claims{}, false
	}
	return claims, true
}

func (s *Session) close() {
	s.Cart.Close()
	s.Addresses.Close()
}
