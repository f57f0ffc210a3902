package router

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/pricing"
	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

type cartPayload struct {
	global.ListPayload
	ItemCount int            `json:"itemCount"`
	Totals    pricing.Totals `json:"totals"`
}

type cartEventPayload struct {
	Kind      cart.EventKind        `json:"kind"`
	Items     []models.CartLineItem `json:"items"`
	ItemCount int                   `json:"itemCount"`
	Message   string                `json:"message,omitempty"`
}

func cartView(s *storefront.Session) cartPayload {
	sum := s.Checkout.Summary()
	return cartPayload{
		ListPayload: global.NewListPayload(sum.Items),
		ItemCount:   sum.ItemCount,
		Totals:      sum.Totals,
	}
}

// respondCartError reports a failed mutation. When the API rejected the change the
// restored cart is returned with the rollback notice.
func respondCartError(c *gin.Context, s *storefront.Session, err error) {
	var reqErr *gateway.RequestError
	var netErr *gateway.NetworkError
	if errors.Is(err, gateway.ErrAuthenticationRequired) || (!errors.As(err, &reqErr) && !errors.As(err, &netErr)) {
		respondError(c, err, false)
		return
	}
	_ = c.Error(err)
	status, resp := errorResponse(err)
	resp.Message = cart.Event{Err: err}.Message()
	resp.Data = cartView(s)
	c.JSON(status, resp)
}

// GetCart loads the cart from the API so a new or evicted session starts from the
// stored state.
func (h *Handler) GetCart(c *gin.Context) {
	s := currentSession(c)
	if _, ok := fetch(h, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Cart.Refresh(ctx)
	}); !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(s)))
}

// AddToCart looks the product up first so the new line carries its name, price and image.
func (h *Handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentSession(c)
	ctx := c.Request.Context()

	product, err := s.Gateway.Product(ctx, req.ProductID)
	if err != nil {
		respondError(c, err, false)
		return
	}
	if !product.IsInStock() {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("This product is out of stock", []global.ValidationError{
			{Field: "productId", Message: "Out of stock", Code: "out_of_stock"},
		}))
		return
	}

	if err := s.Cart.AddItem(ctx, *product, req.Quantity); err != nil {
		respondCartError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(s)))
}

// UpdateCartItem sets a line's quantity. Quantities below 1 leave the cart unchanged.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	s := currentSession(c)
	if err := s.Cart.UpdateQuantity(c.Request.Context(), c.Param("productId"), req.Quantity); err != nil {
		respondCartError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(s)))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	s := currentSession(c)
	if err := s.Cart.RemoveItem(c.Request.Context(), c.Param("productId")); err != nil {
		respondCartError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(s)))
}

func (h *Handler) ClearCart(c *gin.Context) {
	s := currentSession(c)
	if err := s.Cart.Clear(c.Request.Context()); err != nil {
		respondCartError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(s)))
}

func (h *Handler) RefreshCart(c *gin.Context) {
	s := currentSession(c)
	if err := s.Cart.Refresh(c.Request.Context()); err != nil {
		respondError(c, err, true)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cartView(s)))
}

// CartEvents streams cart changes as server-sent events, starting with the current cart.
func (h *Handler) CartEvents(c *gin.Context) {
	s := currentSession(c)
	events, cancel := s.Cart.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", cartEventPayload{
		Kind:      cart.EventRefreshed,
		Items:     nonNilItems(s.Cart.Items()),
		ItemCount: s.Cart.ItemCount(),
	})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Kind), cartEventPayload{
				Kind:      ev.Kind,
				Items:     nonNilItems(ev.Items),
				ItemCount: ev.ItemCount,
				Message:   ev.Message(),
			})
			return true
		}
	})
}

func nonNilItems(items []models.CartLineItem) []models.CartLineItem {
	if items == nil {
		return []models.CartLineItem{}
	}
	return items
}
