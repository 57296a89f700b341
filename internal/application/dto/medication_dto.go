package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMedicationRequest body para POST /api/medications.
type CreateMedicationRequest struct {
	Name                 string          `json:"name"`
	ActiveIngredient     string          `json:"active_ingredient"`
	Form                 string          `json:"form"`
	Dosage               string          `json:"dosage"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	InitialStock         int             `json:"initial_stock"`
	MinimumStock         int             `json:"minimum_stock"`
	ExpirationDate       *time.Time      `json:"expiration_date,omitempty"`
	RequiresPrescription bool            `json:"requires_prescription"`
}

// UpdateMedicationRequest body para PUT /api/medications/:id.
// No incluye stock: el stock solo cambia por el motor de movimientos.
type UpdateMedicationRequest struct {
	Name                 string          `json:"name"`
	ActiveIngredient     string          `json:"active_ingredient"`
	Form                 string          `json:"form"`
	Dosage               string          `json:"dosage"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	MinimumStock         int             `json:"minimum_stock"`
	ExpirationDate       *time.Time      `json:"expiration_date,omitempty"`
	RequiresPrescription bool            `json:"requires_prescription"`
}

// MedicationResponse representación de un medicamento en respuestas.
type MedicationResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	ActiveIngredient     string          `json:"active_ingredient"`
	Form                 string          `json:"form"`
	Dosage               string          `json:"dosage"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	CurrentStock         int             `json:"current_stock"`
	MinimumStock         int             `json:"minimum_stock"`
	StockStatus          string          `json:"stock_status"`
	ExpirationDate       *time.Time      `json:"expiration_date,omitempty"`
	RequiresPrescription bool            `json:"requires_prescription"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// AdjustStockRequest body para POST /api/medications/:id/adjust
// (reconciliación por conteo físico: se informa la cantidad real contada).
type AdjustStockRequest struct {
	CountedQuantity int    `json:"counted_quantity"`
	Reason          string `json:"reason"`
}

// StockChangeResponse resultado de una mutación de stock.
type StockChangeResponse struct {
	MedicationID string            `json:"medication_id"`
	NewStock     int               `json:"new_stock"`
	StockStatus  string            `json:"stock_status"`
	Movement     *StockMovementDTO `json:"movement,omitempty"` // nil si fue no-op
}

// StockMovementDTO entrada del ledger en respuestas.
type StockMovementDTO struct {
	ID           string          `json:"id"`
	MedicationID string          `json:"medication_id"`
	Kind         string          `json:"kind"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Reason       string          `json:"reason"`
	BatchNumber  string          `json:"batch_number,omitempty"`
	OrderID      string          `json:"order_id,omitempty"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ExpiryAlertDTO alerta de vencimiento próxima.
type ExpiryAlertDTO struct {
	MedicationID   string    `json:"medication_id"`
	Name           string    `json:"name"`
	CurrentStock   int       `json:"current_stock"`
	ExpirationDate time.Time `json:"expiration_date"`
	DaysRemaining  int       `json:"days_remaining"`
	Urgency        string    `json:"urgency"` // high ≤30d, medium ≤60d, low
}
