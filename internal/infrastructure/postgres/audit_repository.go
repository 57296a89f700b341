package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/clinicadev/clinica-api/internal/application/ports"
)

var _ ports.AuditSink = (*AuditRepo)(nil)

// AuditRepo implementa el puerto AuditSink sobre la tabla audit_log (solo-inserción).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador de auditoría.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Record inserta una entrada de auditoría.
func (r *AuditRepo) Record(ctx context.Context, actorID, action, entityID, details string) error {
	query := `
		INSERT INTO audit_log (id, actor_id, action, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.q.Exec(ctx, query, uuid.New().String(), actorID, action, entityID, details)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
