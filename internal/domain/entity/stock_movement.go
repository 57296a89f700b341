package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementKindIn         = "in"         // entrada (recepción de orden)
	MovementKindOut        = "out"        // salida (dispensación)
	MovementKindAdjustment = "adjustment" // ajuste por conteo físico
)

// StockMovement es una entrada del ledger de stock: inmutable, solo-inserción.
// Quantity lleva el delta con signo (positivo entrada, negativo salida); la suma
// de todos los movimientos de un medicamento siempre es igual a su CurrentStock.
type StockMovement struct {
	ID           string
	MedicationID string
	Kind         string // in, out, adjustment
	Quantity     int    // delta con signo
	UnitPrice    decimal.Decimal // snapshot del precio unitario al momento del movimiento
	Reason       string
	BatchNumber  string // lote (entradas por recepción)
	OrderID      string // orden de compra origen, si aplica
	CreatedBy    string // UserID
	CreatedAt    time.Time
}

// Magnitude devuelve la magnitud (valor absoluto) del movimiento.
func (m *StockMovement) Magnitude() int {
	if m.Quantity < 0 {
		return -m.Quantity
	}
	return m.Quantity
}
