package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

var _ repository.PrescriptionRepository = (*PrescriptionRepo)(nil)

const prescriptionColumns = `id, patient_id, medication_id, quantity, instructions,
	status, prescribed_by, delivered_by, delivered_at, created_at, updated_at`

// PrescriptionRepo implementación de PrescriptionRepository sobre PostgreSQL.
type PrescriptionRepo struct {
	q Querier
}

// NewPrescriptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPrescriptionRepository(q Querier) *PrescriptionRepo {
	return &PrescriptionRepo{q: q}
}

// Create persiste una prescripción.
func (r *PrescriptionRepo) Create(p *entity.Prescription) error {
	query := `
		INSERT INTO prescriptions (` + prescriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	deliveredBy := (*string)(nil)
	if p.DeliveredBy != "" {
		deliveredBy = &p.DeliveredBy
	}
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.PatientID, p.MedicationID, p.Quantity, p.Instructions,
		p.Status, p.PrescribedBy, deliveredBy, p.DeliveredAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

// GetByID obtiene una prescripción por ID.
func (r *PrescriptionRepo) GetByID(id string) (*entity.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para la transición de estado.
func (r *PrescriptionRepo) GetForUpdate(id string) (*entity.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// Update persiste cambios de una prescripción.
func (r *PrescriptionRepo) Update(p *entity.Prescription) error {
	query := `
		UPDATE prescriptions
		SET quantity = $2, instructions = $3, status = $4, delivered_by = $5, delivered_at = $6, updated_at = $7
		WHERE id = $1`
	deliveredBy := (*string)(nil)
	if p.DeliveredBy != "" {
		deliveredBy = &p.DeliveredBy
	}
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.Quantity, p.Instructions, p.Status, deliveredBy, p.DeliveredAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	return nil
}

// ListPending lista prescripciones pendientes, más antiguas primero.
func (r *PrescriptionRepo) ListPending(limit, offset int) ([]*entity.Prescription, error) {
	query := `
		SELECT ` + prescriptionColumns + ` FROM prescriptions
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, entity.PrescriptionStatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending prescriptions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Prescription
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PrescriptionRepo) scanOne(row pgx.Row) (*entity.Prescription, error) {
	p, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return p, nil
}

func (r *PrescriptionRepo) scanRow(row pgx.Row) (*entity.Prescription, error) {
	var p entity.Prescription
	var deliveredBy *string
	err := row.Scan(
		&p.ID, &p.PatientID, &p.MedicationID, &p.Quantity, &p.Instructions,
		&p.Status, &p.PrescribedBy, &deliveredBy, &p.DeliveredAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deliveredBy != nil {
		p.DeliveredBy = *deliveredBy
	}
	return &p, nil
}
