package models

// Cart models mirror the backend's /users/cart projection.

type CartLineItem struct {
	ProductID string  `json:"productId" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"` // unit price captured when the line was added
	Image     string  `json:"image,omitempty"`
}

type Cart struct {
	Items     []CartLineItem `json:"items"`
	ItemCount int            `json:"itemCount"`
}

type saveCartRequest struct {
	Items []CartLineItem `json:"items"`
}

// NewSaveCartRequest is the body of POST /users/cart; the whole list is always sent.
func NewSaveCartRequest(items []CartLineItem) interface{} {
	if items == nil {
		items = []CartLineItem{}
	}
	return saveCartRequest{Items: items}
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CloneItems returns an independent copy so snapshots never alias live state.
func CloneItems(items []CartLineItem) []CartLineItem {
	if items == nil {
		return nil
	}
	out := make([]CartLineItem, len(items))
	copy(out, items)
	return out
}

// CountItems sums quantities across lines.
func CountItems(items []CartLineItem) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// FindItem returns the index of the line for productID, or -1.
func FindItem(items []CartLineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// LineItemFromProduct denormalizes the display fields onto a new cart line.
func LineItemFromProduct(p Product, quantity int) CartLineItem {
	item := CartLineItem{
		ProductID: p.ID,
		Quantity:  quantity,
		Name:      p.Name,
		Price:     p.Price,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	return item
}
