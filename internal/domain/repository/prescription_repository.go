package repository

import "github.com/clinicadev/clinica-api/internal/domain/entity"

// PrescriptionRepository define el puerto de persistencia para prescripciones.
type PrescriptionRepository interface {
	Create(p *entity.Prescription) error
	GetByID(id string) (*entity.Prescription, error)
	// GetForUpdate bloquea la fila para la transición pending → delivered/cancelled.
	GetForUpdate(id string) (*entity.Prescription, error)
	Update(p *entity.Prescription) error
	ListPending(limit, offset int) ([]*entity.Prescription, error)
}
