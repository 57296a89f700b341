package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	SupplierID string                   `json:"supplier_id"`
	Notes      string                   `json:"notes,omitempty"`
	Lines      []CreateOrderLineRequest `json:"lines"`
}

// CreateOrderLineRequest línea de la orden a crear.
type CreateOrderLineRequest struct {
	MedicationID string          `json:"medication_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// OrderResponse representación de una orden de compra.
type OrderResponse struct {
	ID          string              `json:"id"`
	SupplierID  string              `json:"supplier_id"`
	OrderNumber string              `json:"order_number"`
	Status      string              `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Notes       string              `json:"notes,omitempty"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	Lines       []OrderLineResponse `json:"lines"`
}

// OrderLineResponse línea de orden en respuestas.
type OrderLineResponse struct {
	ID               string          `json:"id"`
	MedicationID     string          `json:"medication_id"`
	OrderedQuantity  int             `json:"ordered_quantity"`
	ReceivedQuantity int             `json:"received_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

// ReceiveOrderResponse resultado de una recepción.
type ReceiveOrderResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	LinesReceived int    `json:"lines_received"` // líneas con entrada de stock en esta llamada
}

// ReceiveLineRequest body para la recepción parcial de una línea.
type ReceiveLineRequest struct {
	Quantity int `json:"quantity"`
}
