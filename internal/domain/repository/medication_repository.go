package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
)

// MedicationRepository define el puerto de persistencia para medicamentos.
// Las mutaciones de stock (UpdateStock) solo se usan dentro de transacciones
// del motor de stock, tras GetForUpdate.
type MedicationRepository interface {
	Create(medication *entity.Medication) error
	GetByID(id string) (*entity.Medication, error)
	// GetForUpdate bloquea la fila del medicamento (SELECT FOR UPDATE) para la
	// secuencia leer-calcular-escribir del motor.
	GetForUpdate(id string) (*entity.Medication, error)
	// UpdateStock escribe la proyección materializada (stock y estado derivado).
	UpdateStock(id string, currentStock int, stockStatus string) error
	UpdateUnitPrice(id string, unitPrice decimal.Decimal) error
	Update(medication *entity.Medication) error
	Delete(id string) error
	List(limit, offset int) ([]*entity.Medication, error)
	ListLowStock() ([]*entity.Medication, error)
	// ListExpiringBefore devuelve medicamentos con stock > 0 y vencimiento dentro del límite.
	ListExpiringBefore(deadline time.Time) ([]*entity.Medication, error)
}
