package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

var _ repository.SupplierOrderRepository = (*SupplierOrderRepo)(nil)

// SupplierOrderRepo implementación de SupplierOrderRepository sobre PostgreSQL.
type SupplierOrderRepo struct {
	q Querier
}

// NewSupplierOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierOrderRepository(q Querier) *SupplierOrderRepo {
	return &SupplierOrderRepo{q: q}
}

// Create persiste la orden con todas sus líneas.
func (r *SupplierOrderRepo) Create(o *entity.SupplierOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO supplier_orders (id, supplier_id, order_number, status, total_amount, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.SupplierID, o.OrderNumber, o.Status, o.TotalAmount, o.Notes, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert supplier order: %w", err)
	}
	lineQuery := `
		INSERT INTO supplier_order_lines (id, order_id, medication_id, ordered_quantity, received_quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range o.Lines {
		l := &o.Lines[i]
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.OrderID, l.MedicationID, l.OrderedQuantity, l.ReceivedQuantity, l.UnitPrice,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con sus líneas cargadas.
func (r *SupplierOrderRepo) GetByID(id string) (*entity.SupplierOrder, error) {
	return r.get(id, false)
}

// GetForUpdate bloquea la fila de la orden (SELECT FOR UPDATE) y carga sus líneas.
func (r *SupplierOrderRepo) GetForUpdate(id string) (*entity.SupplierOrder, error) {
	return r.get(id, true)
}

func (r *SupplierOrderRepo) get(id string, forUpdate bool) (*entity.SupplierOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, supplier_id, order_number, status, total_amount, notes, created_by, created_at, updated_at
		FROM supplier_orders WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var o entity.SupplierOrder
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.SupplierID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier order: %w", err)
	}
	lines, err := r.loadLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *SupplierOrderRepo) loadLines(ctx context.Context, orderID string) ([]entity.SupplierOrderLine, error) {
	query := `
		SELECT id, order_id, medication_id, ordered_quantity, received_quantity, unit_price
		FROM supplier_order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.SupplierOrderLine
	for rows.Next() {
		var l entity.SupplierOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MedicationID, &l.OrderedQuantity, &l.ReceivedQuantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpdateStatus cambia el estado de la orden.
func (r *SupplierOrderRepo) UpdateStatus(id, status string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE supplier_orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// UpdateLineReceived fija la cantidad recibida de una línea. El constraint
// received_quantity <= ordered_quantity de la tabla respalda la validación de dominio.
func (r *SupplierOrderRepo) UpdateLineReceived(lineID string, receivedQuantity int) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE supplier_order_lines SET received_quantity = $2 WHERE id = $1`, lineID, receivedQuantity)
	if err != nil {
		return fmt.Errorf("update line received: %w", err)
	}
	return nil
}

// ListPending lista órdenes no terminales (ordered, partially_received), más antiguas primero.
func (r *SupplierOrderRepo) ListPending(limit, offset int) ([]*entity.SupplierOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, supplier_id, order_number, status, total_amount, notes, created_by, created_at, updated_at
		FROM supplier_orders
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, entity.OrderStatusOrdered, entity.OrderStatusPartiallyReceived, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SupplierOrder
	for rows.Next() {
		var o entity.SupplierOrder
		if err := rows.Scan(&o.ID, &o.SupplierID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		lines, err := r.loadLines(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}
	return list, nil
}

// OrderNumberExists verifica unicidad del número de orden.
func (r *SupplierOrderRepo) OrderNumberExists(orderNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM supplier_orders WHERE order_number = $1)`, orderNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("order number exists: %w", err)
	}
	return exists, nil
}
