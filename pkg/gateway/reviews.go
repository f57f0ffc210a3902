package gateway

import (
	"context"
	"net/http"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

func (c *Client) CreateReview(ctx context.Context, input models.ReviewInput) (*models.Review, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}
	var out models.Review
	if err := c.do(ctx, request{method: http.MethodPost, path: "/reviews", body: input, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var out []models.Review
	if err := c.do(ctx, request{method: http.MethodGet, path: "/reviews/product/" + escape(productID)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
