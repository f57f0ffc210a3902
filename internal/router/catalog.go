package router

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type productQuery struct {
	Category string  `form:"category"`
	Search   string  `form:"search"`
	MinPrice float64 `form:"minPrice" binding:"gte=0"`
	MaxPrice float64 `form:"maxPrice" binding:"gte=0"`
	Sort     string  `form:"sort"`
	Page     int     `form:"page" binding:"gte=0"`
	Limit    int     `form:"limit" binding:"gte=0,lte=100"`
}

type productListPayload struct {
	global.ListPayload
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type reviewListPayload struct {
	global.ListPayload
	AverageRating float64 `json:"averageRating"`
}

func (h *Handler) GetPromotions(c *gin.Context) {
	category := c.Query("category")
	promotions, ok := fetch(h, c, func(ctx context.Context) ([]models.Promotion, error) {
		return h.gateway.Promotions(ctx, category)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.ListResponse(promotions))
}

func (h *Handler) GetPromotion(c *gin.Context) {
	id := c.Param("id")
	promotion, ok := fetch(h, c, func(ctx context.Context) (*models.Promotion, error) {
		return h.gateway.Promotion(ctx, id)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(promotion))
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, ok := fetch(h, c, h.gateway.Categories)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.ListResponse(categories))
}

// GetProducts lists the catalog. Unknown query parameters are forwarded as filters.
func (h *Handler) GetProducts(c *gin.Context) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid query parameters", []global.ValidationError{
			{Field: "query", Message: err.Error(), Code: "invalid_format"},
		}))
		return
	}

	filter := models.ProductFilter{
		Category: q.Category,
		Search:   q.Search,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Sort:     q.Sort,
		Page:     q.Page,
		Limit:    q.Limit,
		Extra:    map[string]string{},
	}
	for key, values := range c.Request.URL.Query() {
		switch key {
		case "category", "search", "minPrice", "maxPrice", "sort", "page", "limit":
		default:
			if len(values) > 0 {
				filter.Extra[key] = values[0]
			}
		}
	}

	page, ok := fetch(h, c, func(ctx context.Context) (*models.ProductPage, error) {
		return h.gateway.Products(ctx, filter)
	})
	if !ok {
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(page.Total))
	c.JSON(http.StatusOK, global.SuccessResponse(productListPayload{
		ListPayload: global.NewListPayload(page.Products),
		Total:       page.Total,
		Page:        page.Page,
		Pages:       page.Pages,
	}))
}

func (h *Handler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	product, ok := fetch(h, c, func(ctx context.Context) (*models.Product, error) {
		return h.gateway.Product(ctx, id)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

func (h *Handler) GetProductReviews(c *gin.Context) {
	id := c.Param("id")
	reviews, ok := fetch(h, c, func(ctx context.Context) ([]models.Review, error) {
		return h.gateway.ProductReviews(ctx, id)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(reviewListPayload{
		ListPayload:   global.NewListPayload(reviews),
		AverageRating: models.AverageRating(reviews),
	}))
}

func (h *Handler) GetSummerCollection(c *gin.Context) {
	products, ok := fetch(h, c, h.gateway.SummerCollection)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.ListResponse(products))
}

// GetInstagramPosts never fails; an unavailable feed is an empty list.
func (h *Handler) GetInstagramPosts(c *gin.Context) {
	c.JSON(http.StatusOK, global.ListResponse(h.gateway.InstagramPosts(c.Request.Context())))
}

func (h *Handler) CreateReview(c *gin.Context) {
	var input models.ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	input.ProductID = c.Param("id")

	review, err := currentSession(c).Gateway.CreateReview(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(review))
}
