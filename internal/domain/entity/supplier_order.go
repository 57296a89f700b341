package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra a proveedor.
// ordered → partially_received → received; ordered|partially_received → cancelled.
// received y cancelled son terminales.
const (
	OrderStatusOrdered           = "ordered"
	OrderStatusPartiallyReceived = "partially_received"
	OrderStatusReceived          = "received"
	OrderStatusCancelled         = "cancelled"
)

// SupplierOrder representa una orden de compra de medicamentos a un proveedor.
type SupplierOrder struct {
	ID          string
	SupplierID  string
	OrderNumber string // legible, con fecha codificada, único (ej. OC-250901-4821)
	Status      string
	TotalAmount decimal.Decimal // Σ (cantidad × precio unitario) de las líneas
	Notes       string
	CreatedBy   string // UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []SupplierOrderLine
}

// SupplierOrderLine es una línea de la orden: un medicamento con cantidad pedida y recibida.
// Invariante: 0 ≤ ReceivedQuantity ≤ OrderedQuantity.
type SupplierOrderLine struct {
	ID               string
	OrderID          string
	MedicationID     string
	OrderedQuantity  int
	ReceivedQuantity int
	UnitPrice        decimal.Decimal // precio de compra pactado
}

// Outstanding devuelve la cantidad pendiente de recibir de la línea.
func (l *SupplierOrderLine) Outstanding() int {
	return l.OrderedQuantity - l.ReceivedQuantity
}

// DeriveOrderStatus calcula el estado de la orden como función pura de sus líneas:
// received si todas están completas, partially_received si llegó al menos una unidad,
// ordered en caso contrario. cancelled no se deriva: se fija explícitamente.
func DeriveOrderStatus(lines []SupplierOrderLine) string {
	if len(lines) == 0 {
		return OrderStatusOrdered
	}
	full := true
	some := false
	for i := range lines {
		if lines[i].ReceivedQuantity > 0 {
			some = true
		}
		if lines[i].ReceivedQuantity < lines[i].OrderedQuantity {
			full = false
		}
	}
	switch {
	case full:
		return OrderStatusReceived
	case some:
		return OrderStatusPartiallyReceived
	default:
		return OrderStatusOrdered
	}
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusReceived || status == OrderStatusCancelled
}
