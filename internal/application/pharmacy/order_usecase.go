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
	"github.com/clinicadev/clinica-api/internal/domain/repository"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

// SupplierOrderUseCase gestiona el ciclo de vida de las órdenes de compra:
// ordered → partially_received → received, con cancelación terminal mientras
// la orden no esté completamente recibida. La recepción compone mutaciones del
// motor de stock dentro de una única transacción externa todo-o-nada.
type SupplierOrderUseCase struct {
	txRunner     TxRunner
	orderRepo    repository.SupplierOrderRepository
	supplierRepo repository.SupplierRepository
	medRepo      repository.MedicationRepository
	engine       *StockEngine
	codes        CodeAllocator
	audit        ports.AuditSink
	log          *logger.Logger
}

// NewSupplierOrderUseCase construye el caso de uso de órdenes.
func NewSupplierOrderUseCase(
	txRunner TxRunner,
	orderRepo repository.SupplierOrderRepository,
	supplierRepo repository.SupplierRepository,
	medRepo repository.MedicationRepository,
	engine *StockEngine,
	codes CodeAllocator,
	audit ports.AuditSink,
	log *logger.Logger,
) *SupplierOrderUseCase {
	return &SupplierOrderUseCase{
		txRunner:     txRunner,
		orderRepo:    orderRepo,
		supplierRepo: supplierRepo,
		medRepo:      medRepo,
		engine:       engine,
		codes:        codes,
		audit:        audit,
		log:          log,
	}
}

// Create valida proveedor y medicamentos, calcula el total y persiste la orden
// con todas sus líneas en received = 0. No toca el stock.
func (uc *SupplierOrderUseCase) Create(ctx context.Context, actorID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if actorID == "" || in.SupplierID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	supplier, err := uc.supplierRepo.GetByID(in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}

	total := decimal.Zero
	for _, l := range in.Lines {
		if l.Quantity <= 0 || l.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		med, err := uc.medRepo.GetByID(l.MedicationID)
		if err != nil {
			return nil, err
		}
		if med == nil {
			return nil, domain.ErrNotFound
		}
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	orderNumber, err := uc.codes.Allocate(OrderNumberPrefix, uc.orderRepo.OrderNumberExists)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &entity.SupplierOrder{
		ID:          uuid.New().String(),
		SupplierID:  in.SupplierID,
		OrderNumber: orderNumber,
		Status:      entity.OrderStatusOrdered,
		TotalAmount: total,
		Notes:       in.Notes,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, l := range in.Lines {
		order.Lines = append(order.Lines, entity.SupplierOrderLine{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			MedicationID:    l.MedicationID,
			OrderedQuantity: l.Quantity,
			UnitPrice:       l.UnitPrice,
		})
	}
	if err := uc.orderRepo.Create(order); err != nil {
		return nil, err
	}
	uc.recordAudit(ctx, actorID, ports.AuditActionOrderCreated, order.ID,
		fmt.Sprintf("orden %s creada (%d líneas, total %s)", order.OrderNumber, len(order.Lines), total.StringFixed(2)))
	return toOrderResponse(order), nil
}

// Receive reconcilia todas las líneas pendientes de la orden: por cada línea con
// cantidad pendiente genera un lote, registra la entrada vía el motor de stock,
// completa la línea y actualiza el precio de referencia del medicamento al precio
// de compra. Todo dentro de una transacción externa: si una línea falla, la orden
// queda en su estado anterior. Recibir una orden sin pendientes es un no-op
// idempotente (cero filas de ledger, estado intacto).
func (uc *SupplierOrderUseCase) Receive(ctx context.Context, actorID, orderID string) (*dto.ReceiveOrderResponse, error) {
	if actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var results []*ChangeResult
	var status string
	linesReceived := 0
	var orderNumber string

	err := uc.txRunner.RunOrder(ctx, func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
		orderRepo repository.SupplierOrderRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status == entity.OrderStatusCancelled {
			return domain.ErrConflict
		}
		orderNumber = order.OrderNumber
		status = order.Status

		for i := range order.Lines {
			line := &order.Lines[i]
			outstanding := line.Outstanding()
			if outstanding <= 0 {
				continue
			}
			batch, err := uc.codes.Allocate(BatchNumberPrefix, movRepo.BatchNumberExists)
			if err != nil {
				return err
			}
			delta := outstanding
			res, err := uc.engine.ApplyInTx(medRepo, movRepo, ChangeInput{
				MedicationID: line.MedicationID,
				ActorID:      actorID,
				Kind:         entity.MovementKindIn,
				Delta:        &delta,
				Reason:       fmt.Sprintf("Recepción orden %s", order.OrderNumber),
				OrderID:      order.ID,
				BatchNumber:  batch,
				UnitPrice:    &line.UnitPrice,
			}, now)
			if err != nil {
				return err
			}
			if err := orderRepo.UpdateLineReceived(line.ID, line.OrderedQuantity); err != nil {
				return err
			}
			// El precio de compra más reciente pasa a ser el precio de referencia.
			if err := medRepo.UpdateUnitPrice(line.MedicationID, line.UnitPrice); err != nil {
				return err
			}
			line.ReceivedQuantity = line.OrderedQuantity
			results = append(results, res)
			linesReceived++
		}

		if linesReceived == 0 {
			return nil // nada pendiente: no-op
		}
		status = entity.DeriveOrderStatus(order.Lines)
		return orderRepo.UpdateStatus(order.ID, status)
	})
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		uc.engine.NotifyChange(ctx, res)
	}
	if linesReceived > 0 {
		uc.recordAudit(ctx, actorID, ports.AuditActionOrderReceived, orderID,
			fmt.Sprintf("orden %s recibida (%d líneas)", orderNumber, linesReceived))
	}
	return &dto.ReceiveOrderResponse{OrderID: orderID, Status: status, LinesReceived: linesReceived}, nil
}

// ReceiveLine registra una recepción parcial sobre una línea concreta. La cantidad
// no puede superar lo pendiente de la línea; el estado de la orden se recalcula
// como función pura de sus líneas (partially_received o received).
func (uc *SupplierOrderUseCase) ReceiveLine(ctx context.Context, actorID, orderID, lineID string, quantity int) (*dto.ReceiveOrderResponse, error) {
	if actorID == "" || orderID == "" || lineID == "" {
		return nil, domain.ErrInvalidInput
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var result *ChangeResult
	var status string
	var orderNumber string

	err := uc.txRunner.RunOrder(ctx, func(
		medRepo repository.MedicationRepository,
		movRepo repository.StockMovementRepository,
		orderRepo repository.SupplierOrderRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status == entity.OrderStatusCancelled {
			return domain.ErrConflict
		}
		orderNumber = order.OrderNumber

		var line *entity.SupplierOrderLine
		for i := range order.Lines {
			if order.Lines[i].ID == lineID {
				line = &order.Lines[i]
				break
			}
		}
		if line == nil {
			return domain.ErrNotFound
		}
		// Rechaza recepciones que exceden lo pendiente: received ≤ ordered siempre.
		if quantity > line.Outstanding() {
			return domain.ErrInvalidInput
		}

		batch, err := uc.codes.Allocate(BatchNumberPrefix, movRepo.BatchNumberExists)
		if err != nil {
			return err
		}
		delta := quantity
		result, err = uc.engine.ApplyInTx(medRepo, movRepo, ChangeInput{
			MedicationID: line.MedicationID,
			ActorID:      actorID,
			Kind:         entity.MovementKindIn,
			Delta:        &delta,
			Reason:       fmt.Sprintf("Recepción parcial orden %s", order.OrderNumber),
			OrderID:      order.ID,
			BatchNumber:  batch,
			UnitPrice:    &line.UnitPrice,
		}, now)
		if err != nil {
			return err
		}
		line.ReceivedQuantity += quantity
		if err := orderRepo.UpdateLineReceived(line.ID, line.ReceivedQuantity); err != nil {
			return err
		}
		if err := medRepo.UpdateUnitPrice(line.MedicationID, line.UnitPrice); err != nil {
			return err
		}
		status = entity.DeriveOrderStatus(order.Lines)
		if status != order.Status {
			return orderRepo.UpdateStatus(order.ID, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.engine.NotifyChange(ctx, result)
	uc.recordAudit(ctx, actorID, ports.AuditActionOrderReceived, orderID,
		fmt.Sprintf("recepción parcial en orden %s (+%d unidades)", orderNumber, quantity))
	return &dto.ReceiveOrderResponse{OrderID: orderID, Status: status, LinesReceived: 1}, nil
}

// Cancel marca la orden como cancelada. Solo se permite mientras no esté
// completamente recibida; las recepciones parciales ya aplicadas no se revierten.
func (uc *SupplierOrderUseCase) Cancel(ctx context.Context, actorID, orderID string) error {
	if actorID == "" || orderID == "" {
		return domain.ErrInvalidInput
	}
	var orderNumber string
	err := uc.txRunner.RunOrder(ctx, func(
		_ repository.MedicationRepository,
		_ repository.StockMovementRepository,
		orderRepo repository.SupplierOrderRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if entity.IsTerminalOrderStatus(order.Status) {
			return domain.ErrConflict
		}
		orderNumber = order.OrderNumber
		return orderRepo.UpdateStatus(order.ID, entity.OrderStatusCancelled)
	})
	if err != nil {
		return err
	}
	uc.recordAudit(ctx, actorID, ports.AuditActionOrderCancelled, orderID,
		fmt.Sprintf("orden %s cancelada", orderNumber))
	return nil
}

// GetByID devuelve la orden con sus líneas.
func (uc *SupplierOrderUseCase) GetByID(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return toOrderResponse(order), nil
}

// ListPending lista las órdenes aún no terminales (ordered, partially_received).
func (uc *SupplierOrderUseCase) ListPending(ctx context.Context, limit, offset int) ([]dto.OrderResponse, error) {
	orders, err := uc.orderRepo.ListPending(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, *toOrderResponse(o))
	}
	return out, nil
}

// recordAudit registra en la bitácora; un fallo de auditoría se loguea pero no
// revierte la operación de negocio ya confirmada.
func (uc *SupplierOrderUseCase) recordAudit(ctx context.Context, actorID, action, entityID, details string) {
	if uc.audit == nil {
		return
	}
	if err := uc.audit.Record(ctx, actorID, action, entityID, details); err != nil {
		uc.log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("fallo al registrar auditoría")
	}
}

func toOrderResponse(o *entity.SupplierOrder) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:          o.ID,
		SupplierID:  o.SupplierID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Notes:       o.Notes,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
		Lines:       make([]dto.OrderLineResponse, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, dto.OrderLineResponse{
			ID:               l.ID,
			MedicationID:     l.MedicationID,
			OrderedQuantity:  l.OrderedQuantity,
			ReceivedQuantity: l.ReceivedQuantity,
			UnitPrice:        l.UnitPrice,
		})
	}
	return resp
}
