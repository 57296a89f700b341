package pharmacy

import (
	"context"

	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza atomicidad para el motor de stock: o se escriben el
// stock y su fila de ledger juntos, o no se escribe nada.
type TxRunner interface {
	// Run abre la unidad atómica mínima del motor (medicamento + ledger).
	Run(ctx context.Context, fn func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
	) error) error

	// RunOrder abre la transacción externa de recepción de órdenes: varias
	// mutaciones del motor más las líneas y el estado de la orden, todo o nada.
	RunOrder(ctx context.Context, fn func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
		orderRepo repository.SupplierOrderRepository,
	) error) error

	// RunPrescription abre la transacción de dispensación: la marca de entrega
	// y la deducción de stock se confirman juntas.
	RunPrescription(ctx context.Context, fn func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
		rxRepo repository.PrescriptionRepository,
	) error) error
}
