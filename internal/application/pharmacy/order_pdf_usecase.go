package pharmacy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

// OrderLineForPDF es una línea de la orden resuelta para impresión: incluye el
// nombre del medicamento, que la línea persistida solo referencia por ID.
type OrderLineForPDF struct {
	MedicationName string
	Quantity       int
	Received       int
	UnitPrice      decimal.Decimal
	Subtotal       decimal.Decimal
}

// OrderPDFGenerator genera el documento imprimible de una orden de compra.
type OrderPDFGenerator interface {
	GenerateOrderPDF(ctx context.Context, order *entity.SupplierOrder, supplier *entity.Supplier, lines []OrderLineForPDF) ([]byte, error)
}

// OrderDocumentUseCase produce la orden de compra imprimible para enviar al proveedor.
type OrderDocumentUseCase struct {
	orderRepo    repository.SupplierOrderRepository
	supplierRepo repository.SupplierRepository
	medRepo      repository.MedicationRepository
	pdfGen       OrderPDFGenerator
}

// NewOrderDocumentUseCase construye el caso de uso.
func NewOrderDocumentUseCase(
	orderRepo repository.SupplierOrderRepository,
	supplierRepo repository.SupplierRepository,
	medRepo repository.MedicationRepository,
	pdfGen OrderPDFGenerator,
) *OrderDocumentUseCase {
	return &OrderDocumentUseCase{orderRepo: orderRepo, supplierRepo: supplierRepo, medRepo: medRepo, pdfGen: pdfGen}
}

// GenerateOrderPDF devuelve los bytes del PDF y el nombre de archivo sugerido.
func (uc *OrderDocumentUseCase) GenerateOrderPDF(ctx context.Context, orderID string) ([]byte, string, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, "", fmt.Errorf("cargar orden: %w", err)
	}
	if order == nil {
		return nil, "", domain.ErrNotFound
	}
	supplier, err := uc.supplierRepo.GetByID(order.SupplierID)
	if err != nil {
		return nil, "", fmt.Errorf("cargar proveedor: %w", err)
	}
	if supplier == nil {
		return nil, "", domain.ErrNotFound
	}

	lines := make([]OrderLineForPDF, 0, len(order.Lines))
	for _, l := range order.Lines {
		med, err := uc.medRepo.GetByID(l.MedicationID)
		if err != nil {
			return nil, "", fmt.Errorf("cargar medicamento %s: %w", l.MedicationID, err)
		}
		name := l.MedicationID
		if med != nil {
			name = med.Name
		}
		lines = append(lines, OrderLineForPDF{
			MedicationName: name,
			Quantity:       l.OrderedQuantity,
			Received:       l.ReceivedQuantity,
			UnitPrice:      l.UnitPrice,
			Subtotal:       l.UnitPrice.Mul(decimal.NewFromInt(int64(l.OrderedQuantity))),
		})
	}

	doc, err := uc.pdfGen.GenerateOrderPDF(ctx, order, supplier, lines)
	if err != nil {
		return nil, "", fmt.Errorf("generar pdf de orden %s: %w", order.OrderNumber, err)
	}
	return doc, fmt.Sprintf("orden-%s.pdf", order.OrderNumber), nil
}
