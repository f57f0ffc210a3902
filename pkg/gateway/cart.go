package gateway

import (
	"context"
	"net/http"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

func (c *Client) Cart(ctx context.Context) (*models.Cart, error) {
	var out models.Cart
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/cart", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveCart replaces the whole server cart with items.
func (c *Client) SaveCart(ctx context.Context, items []models.CartLineItem) (*models.Cart, error) {
	var out models.Cart
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/users/cart",
		body:   models.NewSaveCartRequest(items),
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/users/cart", auth: true}, nil)
}
