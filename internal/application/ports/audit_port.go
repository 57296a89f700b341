package ports

import "context"

// AuditSink define el puerto de salida hacia la bitácora de auditoría.
// Lo invocan los casos de uso (órdenes, dispensación, ajustes) tras un cambio
// de estado exitoso; el motor de stock nunca lo llama directamente.
type AuditSink interface {
	Record(ctx context.Context, actorID, action, entityID, details string) error
}

// Acciones registradas en auditoría.
const (
	AuditActionStockAdjusted         = "stock.adjusted"
	AuditActionOrderCreated          = "order.created"
	AuditActionOrderReceived         = "order.received"
	AuditActionOrderCancelled        = "order.cancelled"
	AuditActionPrescriptionDelivered = "prescription.delivered"
	AuditActionPrescriptionCancelled = "prescription.cancelled"
)
