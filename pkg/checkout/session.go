// Package checkout ties the cart, the address book and coupon state together to price
// and place an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"julianmorley.ca/con-plar/storefront/pkg/address"
	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/coupon"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/pricing"
)

var (
	ErrNoAddressSelected    = errors.New("checkout: select a delivery address")
	ErrEmptyCart            = errors.New("checkout: cart is empty")
	ErrInvalidPaymentMethod = errors.New("checkout: unknown payment method")
	ErrOrderInProgress      = errors.New("checkout: an order is already being placed")
)

type OrderGateway interface {
	CreateOrder(ctx context.Context, order models.CreateOrderRequest) (*models.Order, error)
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error)
	CreateCODPayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error)
	VerifyPayment(ctx context.Context, v models.PaymentVerification) (*models.Payment, error)
}

type CouponValidator interface {
	Validate(ctx context.Context, code string) coupon.Result
}

// CouponState is held for the checkout only. Discount is 0 unless Applied.
type CouponState struct {
	Code     string  `json:"code,omitempty"`
	Discount float64 `json:"discount"`
	Applied  bool    `json:"applied"`
}

type Summary struct {
	Items         []models.CartLineItem `json:"items"`
	ItemCount     int                   `json:"itemCount"`
	Totals        pricing.Totals        `json:"totals"`
	Coupon        CouponState           `json:"coupon"`
	Address       *models.Address       `json:"address,omitempty"`
	Addresses     []models.Address      `json:"addresses"`
	CanPlaceOrder bool                  `json:"canPlaceOrder"`
}

// Placement is the result of PlaceOrder. Payment is nil when the order was created but
// the payment call failed.
type Placement struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment,omitempty"`
}

type Session struct {
	cart    *cart.Store
	book    *address.Book
	coupons CouponValidator
	calc    pricing.Calculator
	orders  OrderGateway
	logger  *zap.Logger
	newKey  func() string

	mu     sync.Mutex
	coupon CouponState

	placing sync.Mutex
}

func NewSession(store *cart.Store, book *address.Book, coupons CouponValidator, calc pricing.Calculator,
	orders OrderGateway, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cart:    store,
		book:    book,
		coupons: coupons,
		calc:    calc,
		orders:  orders,
		logger:  logger,
		newKey:  uuid.NewString,
	}
}

// ApplyCoupon validates code and applies it when valid. A rejected code leaves any
// coupon already applied in place.
func (s *Session) ApplyCoupon(ctx context.Context, code string) coupon.Result {
	result := s.coupons.Validate(ctx, code)
	if result.IsValid {
		s.mu.Lock()
		s.coupon = CouponState{Code: result.Code, Discount: result.Discount, Applied: true}
		s.mu.Unlock()
	}
	return result
}

func (s *Session) RemoveCoupon() {
	s.mu.Lock()
	s.coupon = CouponState{}
	s.mu.Unlock()
}

func (s *Session) Coupon() CouponState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon
}

// Summary prices the current cart with the applied coupon.
func (s *Session) Summary() Summary {
	items := s.cart.Items()
	if items == nil {
		items = []models.CartLineItem{}
	}
	state := s.Coupon()

	sum := Summary{
		Items:     items,
		ItemCount: s.cart.ItemCount(),
		Totals:    s.calc.Compute(items, state.Discount),
		Coupon:    state,
		Addresses: s.book.Addresses(),
	}
	if selected, ok := s.book.Selected(); ok {
		sum.Address = &selected
	}
	sum.CanPlaceOrder = sum.Address != nil && len(items) > 0
	return sum
}

// Prepare reloads the cart and the address book concurrently, then summarizes.
func (s *Session) Prepare(ctx context.Context) (Summary, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.cart.Refresh(gctx) })
	g.Go(func() error { return s.book.Load(gctx) })
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s.Summary(), nil
}

// PlaceOrder creates the order for the selected address and current cart, then starts
// the payment. The coupon is reset and the cart refreshed once the order exists.
func (s *Session) PlaceOrder(ctx context.Context, method models.PaymentMethod) (*Placement, error) {
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if !s.placing.TryLock() {
		return nil, ErrOrderInProgress
	}
	defer s.placing.Unlock()

	sum := s.Summary()
	if sum.Address == nil {
		return nil, ErrNoAddressSelected
	}
	if len(sum.Items) == 0 {
		return nil, ErrEmptyCart
	}

	req := models.CreateOrderRequest{
		Items:           models.OrderItemsFromCart(sum.Items),
		ShippingAddress: *sum.Address,
		PaymentMethod:   method,
		Subtotal:        sum.Totals.Subtotal,
		Tax:             sum.Totals.Tax,
		Shipping:        sum.Totals.Shipping,
		Discount:        sum.Totals.Discount,
		Total:           sum.Totals.Total,
		IdempotencyKey:  s.newKey(),
	}
	if sum.Coupon.Applied {
		req.CouponCode = sum.Coupon.Code
	}

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order placed",
		zap.String("order", order.OrderNumber),
		zap.String("method", string(method)),
		zap.Float64("total", req.Total),
	)

	s.RemoveCoupon()
	if err := s.cart.Refresh(ctx); err != nil {
		s.logger.Warn("cart refresh after order failed", zap.Error(err))
	}

	payReq := models.PaymentRequest{OrderID: order.ID, Amount: order.Total, Method: method}
	if payReq.Amount == 0 {
		payReq.Amount = req.Total
	}

	var payment *models.Payment
	if method == models.PaymentCOD {
		payment, err = s.orders.CreateCODPayment(ctx, payReq)
	} else {
		payment, err = s.orders.CreatePayment(ctx, payReq)
	}
	if err != nil {
		return &Placement{Order: order}, fmt.Errorf("order %s created but payment failed: %w", order.OrderNumber, err)
	}
	return &Placement{Order: order, Payment: payment}, nil
}

// VerifyPayment confirms an online payment completed in the payment widget.
func (s *Session) VerifyPayment(ctx context.Context, v models.PaymentVerification) (*models.Payment, error) {
	return s.orders.VerifyPayment(ctx, v)
}
