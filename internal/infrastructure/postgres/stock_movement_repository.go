package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger de stock sobre PostgreSQL.
// Solo-inserción: no expone Update ni Delete; la tabla tampoco los permite.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta una fila del ledger.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, medication_id, kind, quantity, unit_price, reason, batch_number, order_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	batch := (*string)(nil)
	if m.BatchNumber != "" {
		batch = &m.BatchNumber
	}
	orderID := (*string)(nil)
	if m.OrderID != "" {
		orderID = &m.OrderID
	}
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.MedicationID, m.Kind, m.Quantity, m.UnitPrice, m.Reason, batch, orderID, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento duplicado: %w", err)
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `
		SELECT id, medication_id, kind, quantity, unit_price, reason, batch_number, order_id, created_by, created_at
		FROM stock_movements WHERE id = $1`
	var m entity.StockMovement
	var batch, orderID *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.MedicationID, &m.Kind, &m.Quantity, &m.UnitPrice, &m.Reason, &batch, &orderID, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if batch != nil {
		m.BatchNumber = *batch
	}
	if orderID != nil {
		m.OrderID = *orderID
	}
	return &m, nil
}

// ListByMedication lista movimientos de un medicamento en un rango de fechas, más recientes primero.
func (r *StockMovementRepo) ListByMedication(medicationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, medication_id, kind, quantity, unit_price, reason, batch_number, order_id, created_by, created_at
		FROM stock_movements WHERE medication_id = $1`
	args := []any{medicationID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var batch, orderID *string
		if err := rows.Scan(&m.ID, &m.MedicationID, &m.Kind, &m.Quantity, &m.UnitPrice,
			&m.Reason, &batch, &orderID, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if batch != nil {
			m.BatchNumber = *batch
		}
		if orderID != nil {
			m.OrderID = *orderID
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// HasMovements indica si existe historial para el medicamento.
func (r *StockMovementRepo) HasMovements(medicationID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM stock_movements WHERE medication_id = $1)`, medicationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has movements: %w", err)
	}
	return exists, nil
}

// BatchNumberExists verifica unicidad de un número de lote.
func (r *StockMovementRepo) BatchNumberExists(batchNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM stock_movements WHERE batch_number = $1)`, batchNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("batch number exists: %w", err)
	}
	return exists, nil
}
