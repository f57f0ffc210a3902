// Package coupon validates checkout coupon codes against the customer's order history.
package coupon

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const (
	CodeFirstOrder     = "FIRST100"
	FirstOrderDiscount = 100.0
)

// Rejection reasons. Callers compare against these, never against error text.
const (
	ReasonInvalidCode     = "invalid code"
	ReasonFirstOrdersOnly = "first orders only"
	ReasonNotValidated    = "could not validate"
)

// OrderHistory is the order lookup the validator needs.
type OrderHistory interface {
	MyOrders(ctx context.Context, page, limit int) (*models.OrderPage, error)
}

type Result struct {
	Code     string  `json:"code"`
	IsValid  bool    `json:"isValid"`
	Discount float64 `json:"discount"`
	Reason   string  `json:"reason,omitempty"`
	// Err is the lookup failure behind ReasonNotValidated.
	Err error `json:"-"`
}

type Validator struct {
	history OrderHistory
	logger  *zap.Logger
}

func NewValidator(history OrderHistory, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{history: history, logger: logger}
}

// Normalize trims and uppercases a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (v *Validator) Validate(ctx context.Context, code string) Result {
	normalized := Normalize(code)
	if normalized != CodeFirstOrder {
		return Result{Code: normalized, Reason: ReasonInvalidCode}
	}

	page, err := v.history.MyOrders(ctx, 1, 1)
	if err != nil {
		v.logger.Warn("coupon order history lookup failed", zap.String("code", normalized), zap.Error(err))
		return Result{Code: normalized, Reason: ReasonNotValidated, Err: err}
	}
	if page != nil && (len(page.Orders) > 0 || page.Total > 0) {
		return Result{Code: normalized, Reason: ReasonFirstOrdersOnly}
	}
	return Result{Code: normalized, IsValid: true, Discount: FirstOrderDiscount}
}
