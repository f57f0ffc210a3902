package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

func (c *Client) CreateOrder(ctx context.Context, order models.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, request{method: http.MethodPost, path: "/orders", body: order, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyOrders pages through the signed-in user's order history, newest first.
func (c *Client) MyOrders(ctx context.Context, page, limit int) (*models.OrderPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out models.OrderPage
	err := c.do(ctx, request{method: http.MethodGet, path: "/orders/myorders", query: query, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/" + escape(id), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
