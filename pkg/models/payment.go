package models

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type PaymentRequest struct {
	OrderID string        `json:"orderId"`
	Amount  float64       `json:"amount"`
	Method  PaymentMethod `json:"method,omitempty"`
}

// Payment is what /payments and /payments/cod return. GatewayOrderID is set for online
// payments and handed to the payment widget by the view.
type Payment struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"orderId"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency,omitempty"`
	Status         string  `json:"status"`
	GatewayOrderID string  `json:"gatewayOrderId,omitempty"`
}

type PaymentVerification struct {
	OrderID        string `json:"orderId" binding:"required"`
	PaymentID      string `json:"paymentId" binding:"required"`
	GatewayOrderID string `json:"gatewayOrderId" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}
