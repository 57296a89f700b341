package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

// Ensure TxRunner implements pharmacy.TxRunner.
var _ pharmacy.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL, con los
// repositorios atados a esa tx. Commit si el callback retorna nil; Rollback en
// cualquier otro caso (incluida cancelación de contexto): nunca queda stock
// cambiado sin su fila de ledger ni al revés.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run abre la unidad atómica mínima del motor de stock (medicamento + ledger).
func (r *TxRunner) Run(ctx context.Context, fn func(
	medRepo repository.MedicationRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMedicationRepository(tx), NewStockMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunOrder abre la transacción externa de recepción/cancelación de órdenes.
func (r *TxRunner) RunOrder(ctx context.Context, fn func(
	medRepo repository.MedicationRepository,
	movRepo repository.StockMovementRepository,
	orderRepo repository.SupplierOrderRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMedicationRepository(tx), NewStockMovementRepository(tx), NewSupplierOrderRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunPrescription abre la transacción de dispensación (marca de entrega + deducción).
func (r *TxRunner) RunPrescription(ctx context.Context, fn func(
	medRepo repository.MedicationRepository,
	movRepo repository.StockMovementRepository,
	rxRepo repository.PrescriptionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMedicationRepository(tx), NewStockMovementRepository(tx), NewPrescriptionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
