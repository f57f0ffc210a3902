package models

import (
	"net/url"
	"strconv"
	"time"
)

// Product represents a catalog entry as served by the storefront API
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug,omitempty"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice,omitempty"`
	Images        []string  `json:"images,omitempty"`
	Sizes         []string  `json:"sizes,omitempty"`
	Colors        []string  `json:"colors,omitempty"`
	Stock         *int      `json:"stock,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	NumReviews    int       `json:"numReviews,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// IsInStock is true when the API reports stock left or leaves stock out.
func (p *Product) IsInStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

// DiscountPercent is the markdown from OriginalPrice, rounded down; 0 when not on sale.
func (p *Product) DiscountPercent() int {
	if p.OriginalPrice <= 0 || p.OriginalPrice <= p.Price {
		return 0
	}
	return int((p.OriginalPrice - p.Price) / p.OriginalPrice * 100)
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

type Promotion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image,omitempty"`
	Link     string `json:"link,omitempty"`
	Category string `json:"category,omitempty"`
	Active   bool   `json:"active"`
}

type InstagramPost struct {
	ID        string `json:"id"`
	MediaURL  string `json:"mediaUrl"`
	Permalink string `json:"permalink,omitempty"`
	Caption   string `json:"caption,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// ProductFilter is turned into /products query parameters. Category may be a slug or an id;
// the backend disambiguates.
type ProductFilter struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
	Sort     string
	Page     int
	Limit    int
	Extra    map[string]string
}

func (f ProductFilter) Values() url.Values {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.MinPrice > 0 {
		v.Set("minPrice", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		v.Set("maxPrice", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.Sort != "" {
		v.Set("sort", f.Sort)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	for key, value := range f.Extra {
		if value != "" {
			v.Set(key, value)
		}
	}
	return v
}
