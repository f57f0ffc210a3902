package gateway

import (
	"context"
	"net/http"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

func (c *Client) Addresses(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	if err := c.do(ctx, request{method: http.MethodGet, path: "/addresses", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAddress validates the form locally before sending it.
func (c *Client) CreateAddress(ctx context.Context, input models.AddressInput) (*models.Address, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}
	var out models.Address
	if err := c.do(ctx, request{method: http.MethodPost, path: "/addresses", body: input, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAddress(ctx context.Context, id string, input models.AddressInput) (*models.Address, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}
	var out models.Address
	err := c.do(ctx, request{method: http.MethodPut, path: "/addresses/" + escape(id), body: input, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/addresses/" + escape(id), auth: true}, nil)
}

func (c *Client) SetDefaultAddress(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/addresses/" + escape(id) + "/set-default", auth: true}, nil)
}
