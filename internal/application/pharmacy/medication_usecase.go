package pharmacy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/clinicadev/clinica-api/internal/application/dto"
	"github.com/clinicadev/clinica-api/internal/application/ports"
	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	domainpharmacy "github.com/clinicadev/clinica-api/internal/domain/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

// MedicationUseCase administra el catálogo de medicamentos y los ajustes manuales
// de stock por conteo físico. El stock nunca se edita directamente: el alta con
// stock inicial y la reconciliación pasan por el motor de movimientos.
type MedicationUseCase struct {
	medRepo repository.MedicationRepository
	movRepo repository.StockMovementRepository
	engine  *StockEngine
	audit   ports.AuditSink
	log     *logger.Logger
}

// NewMedicationUseCase construye el caso de uso de medicamentos.
func NewMedicationUseCase(
	medRepo repository.MedicationRepository,
	movRepo repository.StockMovementRepository,
	engine *StockEngine,
	audit ports.AuditSink,
	log *logger.Logger,
) *MedicationUseCase {
	return &MedicationUseCase{medRepo: medRepo, movRepo: movRepo, engine: engine, audit: audit, log: log}
}

// Create da de alta un medicamento. Nace con stock 0; si se indica stock inicial,
// se registra como ajuste del motor para que el ledger cubra toda la historia.
func (uc *MedicationUseCase) Create(ctx context.Context, actorID string, in dto.CreateMedicationRequest) (*dto.MedicationResponse, error) {
	if actorID == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitPrice.LessThan(decimal.Zero) || in.InitialStock < 0 || in.MinimumStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	med := &entity.Medication{
		ID:                   uuid.New().String(),
		Name:                 in.Name,
		ActiveIngredient:     in.ActiveIngredient,
		Form:                 in.Form,
		Dosage:               in.Dosage,
		UnitPrice:            in.UnitPrice,
		CurrentStock:         0,
		MinimumStock:         in.MinimumStock,
		StockStatus:          domainpharmacy.DeriveStockStatus(0, in.MinimumStock),
		ExpirationDate:       in.ExpirationDate,
		RequiresPrescription: in.RequiresPrescription,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := uc.medRepo.Create(med); err != nil {
		return nil, err
	}
	if in.InitialStock > 0 {
		target := in.InitialStock
		res, err := uc.engine.Apply(ctx, ChangeInput{
			MedicationID:   med.ID,
			ActorID:        actorID,
			Kind:           entity.MovementKindAdjustment,
			TargetQuantity: &target,
			Reason:         "Stock inicial",
		})
		if err != nil {
			return nil, err
		}
		med = res.Medication
	}
	return toMedicationResponse(med), nil
}

// AdjustStock reconcilia el stock con un conteo físico: el operador informa la
// cantidad real contada y el motor calcula el delta. Delta cero es un no-op puro;
// un delta distinto de cero exige motivo.
func (uc *MedicationUseCase) AdjustStock(ctx context.Context, actorID, medicationID string, in dto.AdjustStockRequest) (*dto.StockChangeResponse, error) {
	if actorID == "" || medicationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.CountedQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	target := in.CountedQuantity
	res, err := uc.engine.Apply(ctx, ChangeInput{
		MedicationID:   medicationID,
		ActorID:        actorID,
		Kind:           entity.MovementKindAdjustment,
		TargetQuantity: &target,
		Reason:         in.Reason,
	})
	if err != nil {
		return nil, err
	}
	if res.Movement != nil {
		uc.recordAudit(ctx, actorID, ports.AuditActionStockAdjusted, medicationID,
			fmt.Sprintf("ajuste por conteo físico: %+d unidades (%s)", res.Movement.Quantity, in.Reason))
	}
	return toStockChangeResponse(res), nil
}

// GetByID devuelve un medicamento.
func (uc *MedicationUseCase) GetByID(ctx context.Context, id string) (*dto.MedicationResponse, error) {
	med, err := uc.medRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, domain.ErrNotFound
	}
	return toMedicationResponse(med), nil
}

// List lista el catálogo paginado.
func (uc *MedicationUseCase) List(ctx context.Context, limit, offset int) ([]dto.MedicationResponse, error) {
	meds, err := uc.medRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MedicationResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, *toMedicationResponse(m))
	}
	return out, nil
}

// Update modifica los datos del catálogo. El stock no se toca por esta vía.
func (uc *MedicationUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateMedicationRequest) (*dto.MedicationResponse, error) {
	if actorID == "" || id == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitPrice.LessThan(decimal.Zero) || in.MinimumStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	med, err := uc.medRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, domain.ErrNotFound
	}
	med.Name = in.Name
	med.ActiveIngredient = in.ActiveIngredient
	med.Form = in.Form
	med.Dosage = in.Dosage
	med.UnitPrice = in.UnitPrice
	med.MinimumStock = in.MinimumStock
	med.ExpirationDate = in.ExpirationDate
	med.RequiresPrescription = in.RequiresPrescription
	// Cambiar el mínimo puede cambiar el estado derivado sin mover stock.
	med.StockStatus = domainpharmacy.DeriveStockStatus(med.CurrentStock, med.MinimumStock)
	med.UpdatedAt = time.Now()
	if err := uc.medRepo.Update(med); err != nil {
		return nil, err
	}
	return toMedicationResponse(med), nil
}

// Delete elimina un medicamento sin historial. Si el ledger lo referencia, el
// borrado se rechaza: destruiría la trazabilidad de los movimientos.
func (uc *MedicationUseCase) Delete(ctx context.Context, actorID, id string) error {
	if actorID == "" || id == "" {
		return domain.ErrInvalidInput
	}
	med, err := uc.medRepo.GetByID(id)
	if err != nil {
		return err
	}
	if med == nil {
		return domain.ErrNotFound
	}
	hasHistory, err := uc.movRepo.HasMovements(id)
	if err != nil {
		return err
	}
	if hasHistory {
		return domain.ErrConflict
	}
	return uc.medRepo.Delete(id)
}

// ListLowStock devuelve los medicamentos en low_stock u out_of_stock.
func (uc *MedicationUseCase) ListLowStock(ctx context.Context) ([]dto.MedicationResponse, error) {
	meds, err := uc.medRepo.ListLowStock()
	if err != nil {
		return nil, err
	}
	out := make([]dto.MedicationResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, *toMedicationResponse(m))
	}
	return out, nil
}

// ListMovements lista el ledger de un medicamento (más recientes primero).
func (uc *MedicationUseCase) ListMovements(ctx context.Context, medicationID string, from, to *time.Time, limit, offset int) ([]dto.StockMovementDTO, error) {
	med, err := uc.medRepo.GetByID(medicationID)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movRepo.ListByMedication(medicationID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementDTO(m))
	}
	return out, nil
}

func (uc *MedicationUseCase) recordAudit(ctx context.Context, actorID, action, entityID, details string) {
	if uc.audit == nil {
		return
	}
	if err := uc.audit.Record(ctx, actorID, action, entityID, details); err != nil {
		uc.log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("fallo al registrar auditoría")
	}
}

func toMedicationResponse(m *entity.Medication) *dto.MedicationResponse {
	return &dto.MedicationResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		ActiveIngredient:     m.ActiveIngredient,
		Form:                 m.Form,
		Dosage:               m.Dosage,
		UnitPrice:            m.UnitPrice,
		CurrentStock:         m.CurrentStock,
		MinimumStock:         m.MinimumStock,
		StockStatus:          m.StockStatus,
		ExpirationDate:       m.ExpirationDate,
		RequiresPrescription: m.RequiresPrescription,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toMovementDTO(m *entity.StockMovement) dto.StockMovementDTO {
	return dto.StockMovementDTO{
		ID:           m.ID,
		MedicationID: m.MedicationID,
		Kind:         m.Kind,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		Reason:       m.Reason,
		BatchNumber:  m.BatchNumber,
		OrderID:      m.OrderID,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func toStockChangeResponse(res *ChangeResult) *dto.StockChangeResponse {
	out := &dto.StockChangeResponse{
		MedicationID: res.Medication.ID,
		NewStock:     res.Medication.CurrentStock,
		StockStatus:  res.Medication.StockStatus,
	}
	if res.Movement != nil {
		m := toMovementDTO(res.Movement)
		out.Movement = &m
	}
	return out
}
