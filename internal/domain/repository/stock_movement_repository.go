package repository

import (
	"time"

	"github.com/clinicadev/clinica-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger de stock.
// El ledger es solo-inserción: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	ListByMedication(medicationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// HasMovements indica si existe historial para el medicamento (bloquea borrado).
	HasMovements(medicationID string) (bool, error)
	// BatchNumberExists verifica unicidad de un número de lote.
	BatchNumberExists(batchNumber string) (bool, error)
}
