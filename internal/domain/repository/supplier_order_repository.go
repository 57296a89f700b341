package repository

import "github.com/clinicadev/clinica-api/internal/domain/entity"

// SupplierOrderRepository define el puerto de persistencia para órdenes de compra
// y sus líneas.
type SupplierOrderRepository interface {
	// Create persiste la orden junto con todas sus líneas.
	Create(order *entity.SupplierOrder) error
	// GetByID devuelve la orden con sus líneas cargadas.
	GetByID(id string) (*entity.SupplierOrder, error)
	// GetForUpdate bloquea la fila de la orden durante la recepción o cancelación.
	GetForUpdate(id string) (*entity.SupplierOrder, error)
	UpdateStatus(id, status string) error
	UpdateLineReceived(lineID string, receivedQuantity int) error
	ListPending(limit, offset int) ([]*entity.SupplierOrder, error)
	OrderNumberExists(orderNumber string) (bool, error)
}
