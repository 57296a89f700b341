package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/clinicadev/clinica-api/internal/application/ports"
)

var _ ports.Notifier = (*NotificationRepo)(nil)

// NotificationRepo implementa el puerto Notifier persistiendo las notificaciones
// en la tabla notifications: una fila por rol y una por usuario puntual de la
// audiencia. El transporte de entrega (push, email) las consume desde ahí.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador de notificaciones.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Notify inserta las filas de la notificación para toda la audiencia.
func (r *NotificationRepo) Notify(ctx context.Context, n ports.Notification) error {
	query := `
		INSERT INTO notifications (id, role_audience, user_id, title, body, urgency, category, target_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`
	for _, role := range n.Roles {
		if _, err := r.q.Exec(ctx, query,
			uuid.New().String(), role, nil, n.Title, n.Body, n.Urgency, n.Category, n.TargetRef,
		); err != nil {
			return fmt.Errorf("insert notification (role %s): %w", role, err)
		}
	}
	for _, userID := range n.UserIDs {
		if _, err := r.q.Exec(ctx, query,
			uuid.New().String(), nil, userID, n.Title, n.Body, n.Urgency, n.Category, n.TargetRef,
		); err != nil {
			return fmt.Errorf("insert notification (user %s): %w", userID, err)
		}
	}
	return nil
}
