package dto

import "time"

// CreatePrescriptionRequest body para POST /api/prescriptions.
type CreatePrescriptionRequest struct {
	PatientID    string `json:"patient_id"`
	MedicationID string `json:"medication_id"`
	Quantity     int    `json:"quantity"`
	Instructions string `json:"instructions,omitempty"`
}

// UpdatePrescriptionRequest body para PUT /api/prescriptions/:id (solo pendientes).
type UpdatePrescriptionRequest struct {
	Quantity     int    `json:"quantity"`
	Instructions string `json:"instructions,omitempty"`
}

// PrescriptionResponse representación de una prescripción.
type PrescriptionResponse struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patient_id"`
	MedicationID string     `json:"medication_id"`
	Quantity     int        `json:"quantity"`
	Instructions string     `json:"instructions,omitempty"`
	Status       string     `json:"status"`
	PrescribedBy string     `json:"prescribed_by"`
	DeliveredBy  string     `json:"delivered_by,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
