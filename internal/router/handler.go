package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/address"
	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/checkout"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/query"
	"julianmorley.ca/con-plar/storefront/pkg/session"
	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

const msgSignIn = "Please sign in to continue"

type Handler struct {
	gateway  *gateway.Client
	registry *storefront.Registry
	backend  session.Backend
	retries  int
	logger   *zap.Logger
}

// NewHandler wires the handlers to the shared catalog client and the session registry.
// retries bounds the attempts for primary reads.
func NewHandler(gw *gateway.Client, registry *storefront.Registry, backend session.Backend, retries int, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:  gw,
		registry: registry,
		backend:  backend,
		retries:  retries,
		logger:   global.LoggerOrNop(logger),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	status := map[string]interface{}{
		"status":   "OK",
		"sessions": h.registry.Len(),
	}
	if p, ok := h.backend.(session.Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("session store ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Session store connection failed", nil))
			return
		}
		status["sessionStore"] = "Connected"
	}
	c.JSON(http.StatusOK, global.SuccessResponse(status))
}

// fetch runs a primary read through the bounded retry and writes the error response
// when it finally fails.
func fetch[T any](h *Handler, c *gin.Context, fn func(context.Context) (T, error)) (T, bool) {
	v, err := query.Do(c.Request.Context(), h.retries, fn)
	if err != nil {
		respondError(c, err, true)
		return v, false
	}
	return v, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid JSON format", []global.ValidationError{
			{Field: "body", Message: err.Error(), Code: "json_parse_error"},
		}))
		return false
	}
	return true
}

// respondError maps a domain error onto the response envelope. Reads that failed for a
// transient reason are flagged retryable so the view can offer to try again.
func respondError(c *gin.Context, err error, read bool) {
	_ = c.Error(err)
	status, resp := errorResponse(err)
	if read && status >= http.StatusInternalServerError {
		resp.Retryable = true
	}
	c.JSON(status, resp)
}

func errorResponse(err error) (int, global.APIResponse) {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, global.ErrorResponse("Validation failed", verrs)
	}

	switch {
	case errors.Is(err, gateway.ErrAuthenticationRequired):
		return http.StatusUnauthorized, global.ErrorResponse(msgSignIn, nil)
	case errors.Is(err, address.ErrUnknownAddress):
		return http.StatusNotFound, global.ErrorResponse("Address not found", nil)
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound, global.ErrorResponse(requestMessage(err, "Not found"), nil)
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, global.ErrorResponse("Quantity must be at least 1", []global.ValidationError{
			{Field: "quantity", Message: "Must be at least 1", Code: "min"},
		})
	case errors.Is(err, checkout.ErrNoAddressSelected):
		return http.StatusBadRequest, global.ErrorResponse("Please select a delivery address", nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, global.ErrorResponse("Your cart is empty", nil)
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return http.StatusBadRequest, global.ErrorResponse("Choose a valid payment method", []global.ValidationError{
			{Field: "paymentMethod", Message: "Must be one of: COD ONLINE", Code: "oneof"},
		})
	case errors.Is(err, checkout.ErrOrderInProgress):
		return http.StatusConflict, global.ErrorResponse("Your order is already being placed", nil)
	case errors.Is(err, cart.ErrClosed), errors.Is(err, address.ErrClosed):
		return http.StatusConflict, global.ErrorResponse("Your session has expired, please reload the page", nil)
	}

	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Status >= http.StatusBadRequest && reqErr.Status < http.StatusInternalServerError {
			return reqErr.Status, global.ErrorResponse(reqErr.Message, nil)
		}
		return http.StatusBadGateway, global.ErrorResponse(reqErr.Message, nil)
	}
	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, global.ErrorResponse("Could not reach the store, please try again", nil)
	}
	return http.StatusInternalServerError, global.ErrorResponse("Something went wrong", nil)
}

func requestMessage(err error, fallback string) string {
	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}

// positiveQuery reads an integer query parameter, using def when it is absent or below 1.
func positiveQuery(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
