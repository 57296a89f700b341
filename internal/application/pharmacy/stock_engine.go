package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	domainpharmacy "github.com/clinicadev/clinica-api/internal/domain/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

// StockEngine es el único punto de mutación del stock de medicamentos.
// Cada cambio distinto de cero bloquea la fila del medicamento (SELECT FOR UPDATE),
// escribe la nueva cantidad, recalcula el estado derivado e inserta exactamente una
// fila en el ledger, todo dentro de una transacción. Si algo falla, no queda ni
// cambio de stock ni fila de ledger.
type StockEngine struct {
	txRunner TxRunner
	alerter  *ThresholdAlerter
}

// NewStockEngine construye el motor. alerter puede ser nil (ej. en tests del motor puro).
func NewStockEngine(txRunner TxRunner, alerter *ThresholdAlerter) *StockEngine {
	return &StockEngine{txRunner: txRunner, alerter: alerter}
}

// ChangeInput entrada de una mutación de stock. Exactamente uno de Delta o
// TargetQuantity debe venir: Delta aplica un cambio con signo; TargetQuantity
// fija la cantidad final y el motor calcula el delta contra el stock actual.
type ChangeInput struct {
	MedicationID string
	ActorID      string
	Kind         string // in, out, adjustment
	Delta        *int   // delta con signo
	TargetQuantity *int // cantidad final deseada (≥ 0)
	// ClampAtZero: las deducciones de consumo recortan en cero en lugar de
	// fallar por stock insuficiente.
	ClampAtZero bool
	Reason      string
	OrderID     string // orden de compra origen (entradas por recepción)
	BatchNumber string // lote asignado a la entrada
	// UnitPrice snapshot para el ledger; si es nil se usa el precio actual del medicamento.
	UnitPrice *decimal.Decimal
}

// ChangeResult estado confirmado tras la mutación.
type ChangeResult struct {
	Medication *entity.Medication
	OldStatus  string
	NewStatus  string
	Movement   *entity.StockMovement // nil si la operación fue no-op (delta cero)
}

// validate rechaza entradas malformadas antes de abrir transacción alguna.
func (in *ChangeInput) validate() error {
	if in.MedicationID == "" || in.ActorID == "" {
		return domain.ErrInvalidInput
	}
	switch in.Kind {
	case entity.MovementKindIn, entity.MovementKindOut, entity.MovementKindAdjustment:
	default:
		return domain.ErrInvalidInput
	}
	if (in.Delta == nil) == (in.TargetQuantity == nil) {
		return domain.ErrInvalidInput
	}
	if in.TargetQuantity != nil && *in.TargetQuantity < 0 {
		return domain.ErrInvalidInput
	}
	if in.Delta != nil && *in.Delta != 0 && in.Reason == "" {
		return domain.ErrMissingReason
	}
	return nil
}

// Apply ejecuta la mutación en su propia transacción y, si hubo cambio efectivo,
// invoca el alertado de umbrales (best-effort, nunca revierte la mutación).
func (e *StockEngine) Apply(ctx context.Context, in ChangeInput) (*ChangeResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	var result *ChangeResult
	err := e.txRunner.Run(ctx, func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
	) error {
		var err error
		result, err = e.ApplyInTx(medRepo, movRepo, in, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.NotifyChange(ctx, result)
	return result, nil
}

// ApplyInTx ejecuta la mutación con los repositorios proporcionados (misma
// transacción del caller). Lo usa la recepción de órdenes para componer varias
// mutaciones dentro de una transacción externa todo-o-nada. El caller es
// responsable de invocar NotifyChange tras el commit.
func (e *StockEngine) ApplyInTx(
	medRepo repository.MedicationRepository,
	movRepo repository.StockMovementRepository,
	in ChangeInput,
	now time.Time,
) (*ChangeResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Bloquea la fila del medicamento: mutaciones concurrentes sobre el mismo
	// medicamento serializan aquí; medicamentos distintos no se bloquean entre sí.
	med, err := medRepo.GetForUpdate(in.MedicationID)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, domain.ErrNotFound
	}

	oldStatus := med.StockStatus
	current := med.CurrentStock

	var delta int
	if in.Delta != nil {
		delta = *in.Delta
	} else {
		delta = *in.TargetQuantity - current
	}

	// Delta cero: no-op, sin fila de ledger.
	if delta == 0 {
		return &ChangeResult{Medication: med, OldStatus: oldStatus, NewStatus: oldStatus}, nil
	}
	if in.Reason == "" {
		return nil, domain.ErrMissingReason
	}

	newStock := current + delta
	if newStock < 0 {
		if !in.ClampAtZero {
			return nil, domain.ErrInsufficientStock
		}
		// Deducción de consumo: recorta en cero y registra solo lo realmente descontado.
		newStock = 0
		delta = -current
		if delta == 0 {
			return &ChangeResult{Medication: med, OldStatus: oldStatus, NewStatus: oldStatus}, nil
		}
	}

	newStatus := domainpharmacy.DeriveStockStatus(newStock, med.MinimumStock)
	if err := medRepo.UpdateStock(med.ID, newStock, newStatus); err != nil {
		return nil, err
	}

	unitPrice := med.UnitPrice
	if in.UnitPrice != nil {
		unitPrice = *in.UnitPrice
	}
	mov := &entity.StockMovement{
		ID:           uuid.New().String(),
		MedicationID: med.ID,
		Kind:         in.Kind,
		Quantity:     delta,
		UnitPrice:    unitPrice,
		Reason:       in.Reason,
		BatchNumber:  in.BatchNumber,
		OrderID:      in.OrderID,
		CreatedBy:    in.ActorID,
		CreatedAt:    now,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}

	med.CurrentStock = newStock
	med.StockStatus = newStatus
	med.UpdatedAt = now
	return &ChangeResult{Medication: med, OldStatus: oldStatus, NewStatus: newStatus, Movement: mov}, nil
}

// NotifyChange dispara el alertado de umbrales para un resultado confirmado.
// Best-effort: los fallos se registran dentro del alerter, nunca se propagan.
func (e *StockEngine) NotifyChange(ctx context.Context, result *ChangeResult) {
	if e.alerter == nil || result == nil || result.Movement == nil {
		return
	}
	e.alerter.StatusChanged(ctx, result.Medication, result.OldStatus, result.NewStatus)
}
