package entity

import "time"

// Estados de una línea de prescripción.
// La deducción de stock ocurre al confirmar la dispensación (delivered),
// no al prescribir: el stock refleja dispensación real, no intención clínica.
const (
	PrescriptionStatusPending   = "pending"
	PrescriptionStatusDelivered = "delivered"
	PrescriptionStatusCancelled = "cancelled"
)

// Prescription representa una línea de prescripción pendiente de dispensar.
type Prescription struct {
	ID           string
	PatientID    string
	MedicationID string
	Quantity     int
	Instructions string // posología indicada por el médico
	Status       string // pending, delivered, cancelled
	PrescribedBy string // UserID del médico
	DeliveredBy  string // UserID del farmacéutico que dispensó
	DeliveredAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
