package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"julianmorley.ca/con-plar/storefront/pkg/checkout"
	"julianmorley.ca/con-plar/storefront/pkg/coupon"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

type placeOrderRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required"`
}

type couponPayload struct {
	Result  coupon.Result    `json:"result"`
	Summary checkout.Summary `json:"summary"`
}

type orderListPayload struct {
	global.ListPayload
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// GetCheckout reloads the cart and address book together and prices the order.
func (h *Handler) GetCheckout(c *gin.Context) {
	s := currentSession(c)
	summary, ok := fetch(h, c, s.Checkout.Prepare)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(summary))
}

func (h *Handler) ApplyCoupon(c *gin.Context) {
	var req couponRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentSession(c)
	result := s.Checkout.ApplyCoupon(c.Request.Context(), req.Code)
	payload := couponPayload{Result: result, Summary: s.Checkout.Summary()}

	if result.IsValid {
		c.JSON(http.StatusOK, global.SuccessResponse(payload))
		return
	}

	if result.Reason == coupon.ReasonNotValidated {
		if errors.Is(result.Err, gateway.ErrAuthenticationRequired) {
			c.JSON(http.StatusUnauthorized, global.ErrorResponse(msgSignIn, nil))
			return
		}
		resp := global.RetryableErrorResponse("We couldn't check this coupon right now, please try again")
		resp.Data = payload
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	message := "This coupon code is not valid"
	if result.Reason == coupon.ReasonFirstOrdersOnly {
		message = "This coupon is only valid on your first order"
	}
	resp := global.ErrorResponse(message, []global.ValidationError{
		{Field: "code", Message: result.Reason, Code: "invalid_coupon"},
	})
	resp.Data = payload
	c.JSON(http.StatusUnprocessableEntity, resp)
}

func (h *Handler) RemoveCoupon(c *gin.Context) {
	s := currentSession(c)
	s.Checkout.RemoveCoupon()
	c.JSON(http.StatusOK, global.SuccessResponse(s.Checkout.Summary()))
}

// PlaceOrder creates the order and starts its payment. When the order exists but the
// payment could not be started the order is still returned with the error.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentSession(c)

	placement, err := s.Checkout.PlaceOrder(c.Request.Context(), req.PaymentMethod)
	if err != nil {
		if placement == nil {
			respondError(c, err, false)
			return
		}
		_ = c.Error(err)
		status, resp := errorResponse(err)
		resp.Message = "Your order was placed but the payment could not be started"
		resp.Data = placement
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(placement))
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var v models.PaymentVerification
	if !bindJSON(c, &v) {
		return
	}
	payment, err := currentSession(c).Checkout.VerifyPayment(c.Request.Context(), v)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(payment))
}

func (h *Handler) GetOrders(c *gin.Context) {
	s := currentSession(c)
	page := positiveQuery(c, "page", 1)
	limit := positiveQuery(c, "limit", 10)

	orders, ok := fetch(h, c, func(ctx context.Context) (*models.OrderPage, error) {
		return s.Gateway.MyOrders(ctx, page, limit)
	})
	if !ok {
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(orders.Total))
	c.JSON(http.StatusOK, global.SuccessResponse(orderListPayload{
		ListPayload: global.NewListPayload(orders.Orders),
		Total:       orders.Total,
		Page:        orders.Page,
		Pages:       orders.Pages,
	}))
}

func (h *Handler) GetOrder(c *gin.Context) {
	s := currentSession(c)
	id := c.Param("id")
	order, ok := fetch(h, c, func(ctx context.Context) (*models.Order, error) {
		return s.Gateway.Order(ctx, id)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order))
}
