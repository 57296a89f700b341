package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock derivados. Nunca se escriben a mano: se recalculan en cada
// mutación a partir de current_stock y minimum_stock (ver pharmacy.DeriveStockStatus).
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// Medication representa un medicamento almacenado en la farmacia de la clínica.
// CurrentStock y StockStatus son proyección materializada del ledger de movimientos:
// solo el motor de stock los modifica.
type Medication struct {
	ID                   string
	Name                 string
	ActiveIngredient     string
	Form                 string // tableta, jarabe, inyectable, crema...
	Dosage               string // ej. "500 mg"
	UnitPrice            decimal.Decimal
	CurrentStock         int
	MinimumStock         int
	StockStatus          string // in_stock, low_stock, out_of_stock
	ExpirationDate       *time.Time
	RequiresPrescription bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
