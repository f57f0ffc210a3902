package gateway

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// Promotions lists active promotions, optionally for one category slug or id.
func (c *Client) Promotions(ctx context.Context, category string) ([]models.Promotion, error) {
	key := keyPromotions
	var query url.Values
	if category != "" {
		key += ":" + category
		query = url.Values{"category": {category}}
	}

	promos, err := cached(ctx, c.cache, key, func(ctx context.Context) ([]models.Promotion, error) {
		var out []models.Promotion
		err := c.do(ctx, request{method: http.MethodGet, path: "/promotions", query: query}, &out)
		return out, err
	})
	return slices.Clone(promos), err
}

func (c *Client) Promotion(ctx context.Context, id string) (*models.Promotion, error) {
	var out models.Promotion
	if err := c.do(ctx, request{method: http.MethodGet, path: "/promotions/" + escape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := cached(ctx, c.cache, keyCategories, func(ctx context.Context) ([]models.Category, error) {
		var out []models.Category
		err := c.do(ctx, request{method: http.MethodGet, path: "/categories"}, &out)
		return out, err
	})
	return slices.Clone(categories), err
}

func (c *Client) Products(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	var out models.ProductPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products", query: filter.Values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + escape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SummerCollection(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/summer-collection"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InstagramPosts never fails: any error or unexpected body yields an empty list.
func (c *Client) InstagramPosts(ctx context.Context) []models.InstagramPost {
	var out []models.InstagramPost
	if err := c.do(ctx, request{method: http.MethodGet, path: "/instagram"}, &out); err != nil {
		c.logger.Warn("instagram feed unavailable", zap.Error(err))
		return []models.InstagramPost{}
	}
	if out == nil {
		return []models.InstagramPost{}
	}
	return out
}
