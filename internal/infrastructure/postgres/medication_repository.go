package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

var _ repository.MedicationRepository = (*MedicationRepo)(nil)

const medicationColumns = `id, name, active_ingredient, form, dosage, unit_price,
	current_stock, minimum_stock, stock_status, expiration_date, requires_prescription,
	created_at, updated_at`

// MedicationRepo implementación de MedicationRepository sobre PostgreSQL (usable con pool o tx).
type MedicationRepo struct {
	q Querier
}

// NewMedicationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMedicationRepository(q Querier) *MedicationRepo {
	return &MedicationRepo{q: q}
}

// Create persiste un medicamento nuevo.
func (r *MedicationRepo) Create(m *entity.Medication) error {
	query := `
		INSERT INTO medications (` + medicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.Name, m.ActiveIngredient, m.Form, m.Dosage, m.UnitPrice,
		m.CurrentStock, m.MinimumStock, m.StockStatus, m.ExpirationDate,
		m.RequiresPrescription, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

// GetByID obtiene un medicamento por ID.
func (r *MedicationRepo) GetByID(id string) (*entity.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate obtiene el medicamento y bloquea su fila (SELECT FOR UPDATE).
// Mutaciones concurrentes sobre el mismo medicamento serializan en este punto.
func (r *MedicationRepo) GetForUpdate(id string) (*entity.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// UpdateStock escribe la proyección materializada: cantidad y estado derivado.
func (r *MedicationRepo) UpdateStock(id string, currentStock int, stockStatus string) error {
	query := `UPDATE medications SET current_stock = $2, stock_status = $3, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, currentStock, stockStatus)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return nil
}

// UpdateUnitPrice actualiza el precio de referencia (última compra).
func (r *MedicationRepo) UpdateUnitPrice(id string, unitPrice decimal.Decimal) error {
	query := `UPDATE medications SET unit_price = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, unitPrice)
	if err != nil {
		return fmt.Errorf("update unit price: %w", err)
	}
	return nil
}

// Update persiste los campos de catálogo (no toca current_stock).
func (r *MedicationRepo) Update(m *entity.Medication) error {
	query := `
		UPDATE medications
		SET name = $2, active_ingredient = $3, form = $4, dosage = $5, unit_price = $6,
		    minimum_stock = $7, stock_status = $8, expiration_date = $9,
		    requires_prescription = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.Name, m.ActiveIngredient, m.Form, m.Dosage, m.UnitPrice,
		m.MinimumStock, m.StockStatus, m.ExpirationDate, m.RequiresPrescription, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	return nil
}

// Delete elimina el medicamento. El caso de uso verifica antes que no tenga historial.
func (r *MedicationRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}

// List lista el catálogo paginado por nombre.
func (r *MedicationRepo) List(limit, offset int) ([]*entity.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListLowStock devuelve medicamentos en low_stock u out_of_stock.
func (r *MedicationRepo) ListLowStock() ([]*entity.Medication, error) {
	query := `
		SELECT ` + medicationColumns + ` FROM medications
		WHERE stock_status IN ($1, $2)
		ORDER BY current_stock ASC, name`
	rows, err := r.q.Query(context.Background(), query, entity.StockStatusLowStock, entity.StockStatusOutOfStock)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListExpiringBefore devuelve medicamentos con stock > 0 y vencimiento dentro del límite.
func (r *MedicationRepo) ListExpiringBefore(deadline time.Time) ([]*entity.Medication, error) {
	query := `
		SELECT ` + medicationColumns + ` FROM medications
		WHERE current_stock > 0 AND expiration_date IS NOT NULL AND expiration_date <= $1
		ORDER BY expiration_date ASC`
	rows, err := r.q.Query(context.Background(), query, deadline)
	if err != nil {
		return nil, fmt.Errorf("list expiring: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *MedicationRepo) scanOne(row pgx.Row) (*entity.Medication, error) {
	var m entity.Medication
	err := row.Scan(
		&m.ID, &m.Name, &m.ActiveIngredient, &m.Form, &m.Dosage, &m.UnitPrice,
		&m.CurrentStock, &m.MinimumStock, &m.StockStatus, &m.ExpirationDate,
		&m.RequiresPrescription, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return &m, nil
}

func (r *MedicationRepo) scanMany(rows pgx.Rows) ([]*entity.Medication, error) {
	var list []*entity.Medication
	for rows.Next() {
		var m entity.Medication
		if err := rows.Scan(
			&m.ID, &m.Name, &m.ActiveIngredient, &m.Form, &m.Dosage, &m.UnitPrice,
			&m.CurrentStock, &m.MinimumStock, &m.StockStatus, &m.ExpirationDate,
			&m.RequiresPrescription, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
