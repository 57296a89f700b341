package pharmacy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/clinicadev/clinica-api/internal/application/dto"
	"github.com/clinicadev/clinica-api/internal/application/ports"
	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

// PrescriptionUseCase gestiona prescripciones y la deducción de stock al dispensar.
// La deducción ocurre al confirmar la dispensación, no al prescribir: el stock
// refleja lo realmente entregado. La marca delivered y la salida de stock se
// confirman en la misma transacción: si la deducción falla, la entrega no queda
// registrada.
type PrescriptionUseCase struct {
	txRunner TxRunner
	rxRepo   repository.PrescriptionRepository
	medRepo  repository.MedicationRepository
	engine   *StockEngine
	audit    ports.AuditSink
	log      *logger.Logger
}

// NewPrescriptionUseCase construye el caso de uso de prescripciones.
func NewPrescriptionUseCase(
	txRunner TxRunner,
	rxRepo repository.PrescriptionRepository,
	medRepo repository.MedicationRepository,
	engine *StockEngine,
	audit ports.AuditSink,
	log *logger.Logger,
) *PrescriptionUseCase {
	return &PrescriptionUseCase{
		txRunner: txRunner,
		rxRepo:   rxRepo,
		medRepo:  medRepo,
		engine:   engine,
		audit:    audit,
		log:      log,
	}
}

// Create registra una prescripción pendiente. No toca el stock.
func (uc *PrescriptionUseCase) Create(ctx context.Context, actorID string, in dto.CreatePrescriptionRequest) (*dto.PrescriptionResponse, error) {
	if actorID == "" || in.PatientID == "" || in.MedicationID == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	med, err := uc.medRepo.GetByID(in.MedicationID)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	rx := &entity.Prescription{
		ID:           uuid.New().String(),
		PatientID:    in.PatientID,
		MedicationID: in.MedicationID,
		Quantity:     in.Quantity,
		Instructions: in.Instructions,
		Status:       entity.PrescriptionStatusPending,
		PrescribedBy: actorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.rxRepo.Create(rx); err != nil {
		return nil, err
	}
	return toPrescriptionResponse(rx), nil
}

// Update modifica cantidad e indicaciones de una prescripción aún pendiente.
func (uc *PrescriptionUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdatePrescriptionRequest) (*dto.PrescriptionResponse, error) {
	if actorID == "" || id == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	rx, err := uc.rxRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rx == nil {
		return nil, domain.ErrNotFound
	}
	if rx.Status != entity.PrescriptionStatusPending {
		return nil, domain.ErrConflict
	}
	rx.Quantity = in.Quantity
	rx.Instructions = in.Instructions
	rx.UpdatedAt = time.Now()
	if err := uc.rxRepo.Update(rx); err != nil {
		return nil, err
	}
	return toPrescriptionResponse(rx), nil
}

// Deliver confirma la dispensación: bloquea la prescripción, deduce el stock vía
// el motor (kind out, recortando en cero) y marca delivered, todo en una sola
// transacción.
func (uc *PrescriptionUseCase) Deliver(ctx context.Context, actorID, id string) (*dto.PrescriptionResponse, error) {
	if actorID == "" || id == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var result *ChangeResult
	var rx *entity.Prescription

	err := uc.txRunner.RunPrescription(ctx, func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
		rxRepo repository.PrescriptionRepository,
	) error {
		var err error
		rx, err = rxRepo.GetForUpdate(id)
		if err != nil {
			return err
		}
		if rx == nil {
			return domain.ErrNotFound
		}
		if rx.Status != entity.PrescriptionStatusPending {
			return domain.ErrConflict
		}
		delta := -rx.Quantity
		result, err = uc.engine.ApplyInTx(medRepo, movRepo, ChangeInput{
			MedicationID: rx.MedicationID,
			ActorID:      actorID,
			Kind:         entity.MovementKindOut,
			Delta:        &delta,
			ClampAtZero:  true,
			Reason:       fmt.Sprintf("Dispensación receta %s (paciente %s)", rx.ID, rx.PatientID),
		}, now)
		if err != nil {
			return err
		}
		rx.Status = entity.PrescriptionStatusDelivered
		rx.DeliveredBy = actorID
		rx.DeliveredAt = &now
		rx.UpdatedAt = now
		return rxRepo.Update(rx)
	})
	if err != nil {
		return nil, err
	}

	uc.engine.NotifyChange(ctx, result)
	uc.recordAudit(ctx, actorID, ports.AuditActionPrescriptionDelivered, id,
		fmt.Sprintf("receta dispensada (%d unidades de %s)", rx.Quantity, rx.MedicationID))
	return toPrescriptionResponse(rx), nil
}

// Cancel anula una prescripción pendiente. No toca el stock.
func (uc *PrescriptionUseCase) Cancel(ctx context.Context, actorID, id string) error {
	if actorID == "" || id == "" {
		return domain.ErrInvalidInput
	}
	rx, err := uc.rxRepo.GetByID(id)
	if err != nil {
		return err
	}
	if rx == nil {
		return domain.ErrNotFound
	}
	if rx.Status != entity.PrescriptionStatusPending {
		return domain.ErrConflict
	}
	rx.Status = entity.PrescriptionStatusCancelled
	rx.UpdatedAt = time.Now()
	if err := uc.rxRepo.Update(rx); err != nil {
		return err
	}
	uc.recordAudit(ctx, actorID, ports.AuditActionPrescriptionCancelled, id, "receta cancelada")
	return nil
}

// ListPending lista prescripciones pendientes de dispensar.
func (uc *PrescriptionUseCase) ListPending(ctx context.Context, limit, offset int) ([]dto.PrescriptionResponse, error) {
	list, err := uc.rxRepo.ListPending(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PrescriptionResponse, 0, len(list))
	for _, rx := range list {
		out = append(out, *toPrescriptionResponse(rx))
	}
	return out, nil
}

func (uc *PrescriptionUseCase) recordAudit(ctx context.Context, actorID, action, entityID, details string) {
	if uc.audit == nil {
		return
	}
	if err := uc.audit.Record(ctx, actorID, action, entityID, details); err != nil {
		uc.log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("fallo al registrar auditoría")
	}
}

func toPrescriptionResponse(rx *entity.Prescription) *dto.PrescriptionResponse {
	return &dto.PrescriptionResponse{
		ID:           rx.ID,
		PatientID:    rx.PatientID,
		MedicationID: rx.MedicationID,
		Quantity:     rx.Quantity,
		Instructions: rx.Instructions,
		Status:       rx.Status,
		PrescribedBy: rx.PrescribedBy,
		DeliveredBy:  rx.DeliveredBy,
		DeliveredAt:  rx.DeliveredAt,
		CreatedAt:    rx.CreatedAt,
	}
}
