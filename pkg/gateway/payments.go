package gateway

import (
	"context"
	"net/http"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// CreatePayment starts an online payment; the returned GatewayOrderID is handed to the
// payment widget.
func (c *Client) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	return c.payment(ctx, "/payments", req)
}

func (c *Client) CreateCODPayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	return c.payment(ctx, "/payments/cod", req)
}

func (c *Client) VerifyPayment(ctx context.Context, v models.PaymentVerification) (*models.Payment, error) {
	return c.payment(ctx, "/payments/verify", v)
}

func (c *Client) payment(ctx context.Context, path string, body any) (*models.Payment, error) {
	var out models.Payment
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
