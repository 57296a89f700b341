package pharmacy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clinicadev/clinica-api/internal/application/dto"
	"github.com/clinicadev/clinica-api/internal/application/ports"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	domainpharmacy "github.com/clinicadev/clinica-api/internal/domain/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

// ThresholdAlerter observa los cambios de estado de stock tras cada mutación y
// emite notificaciones. No tiene efectos sobre el stock; sus fallos se registran
// en el log y nunca revierten la mutación que los originó.
type ThresholdAlerter struct {
	notifier ports.Notifier
	log      *logger.Logger
}

// NewThresholdAlerter construye el observador de umbrales.
func NewThresholdAlerter(notifier ports.Notifier, log *logger.Logger) *ThresholdAlerter {
	return &ThresholdAlerter{notifier: notifier, log: log}
}

// StatusChanged evalúa la transición de estado y notifica según las reglas:
//   - entrada a out_of_stock: alerta de urgencia alta a farmacia + informativa
//     silenciosa a administración
//   - in_stock → low_stock: alerta estándar a farmacia
//   - sin cambio o mejora: nada
func (a *ThresholdAlerter) StatusChanged(ctx context.Context, med *entity.Medication, oldStatus, newStatus string) {
	if oldStatus == newStatus {
		return
	}
	switch newStatus {
	case entity.StockStatusOutOfStock:
		a.send(ctx, ports.Notification{
			Roles:     []string{entity.RoleFarmaceutico},
			Title:     "Medicamento agotado",
			Body:      fmt.Sprintf("%s quedó sin stock. Genere una orden de compra.", med.Name),
			Urgency:   ports.UrgencyHigh,
			Category:  ports.CategoryStockAlert,
			TargetRef: med.ID,
		})
		a.send(ctx, ports.Notification{
			Roles:     []string{entity.RoleAdmin},
			Title:     "Medicamento agotado",
			Body:      fmt.Sprintf("%s quedó sin stock en farmacia.", med.Name),
			Urgency:   ports.UrgencySilent,
			Category:  ports.CategoryStockAlert,
			TargetRef: med.ID,
		})
	case entity.StockStatusLowStock:
		if oldStatus != entity.StockStatusInStock {
			return // mejora desde agotado: no alertar
		}
		a.send(ctx, ports.Notification{
			Roles:     []string{entity.RoleFarmaceutico},
			Title:     "Stock bajo",
			Body:      fmt.Sprintf("%s está por debajo del mínimo (%d unidades, mínimo %d).", med.Name, med.CurrentStock, med.MinimumStock),
			Urgency:   ports.UrgencyNormal,
			Category:  ports.CategoryStockAlert,
			TargetRef: med.ID,
		})
	}
}

func (a *ThresholdAlerter) send(ctx context.Context, n ports.Notification) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, n); err != nil {
		a.log.Warn().Err(err).Str("target", n.TargetRef).Str("category", n.Category).
			Msg("fallo al enviar notificación (no bloquea la mutación)")
	}
}

// ExpiryScanner selecciona medicamentos con stock > 0 cuyo vencimiento cae dentro
// del horizonte configurado y clasifica la urgencia por días restantes.
type ExpiryScanner struct {
	medRepo     repository.MedicationRepository
	horizonDays int
	now         func() time.Time
}

// NewExpiryScanner construye el escáner de vencimientos.
func NewExpiryScanner(medRepo repository.MedicationRepository, horizonDays int) *ExpiryScanner {
	return NewExpiryScannerWithClock(medRepo, horizonDays, time.Now)
}

// NewExpiryScannerWithClock permite inyectar el reloj (tests).
func NewExpiryScannerWithClock(medRepo repository.MedicationRepository, horizonDays int, now func() time.Time) *ExpiryScanner {
	if horizonDays <= 0 {
		horizonDays = 90
	}
	return &ExpiryScanner{medRepo: medRepo, horizonDays: horizonDays, now: now}
}

// ListExpiryAlerts devuelve las alertas de vencimiento vigentes, más urgentes primero.
func (s *ExpiryScanner) ListExpiryAlerts(ctx context.Context) ([]dto.ExpiryAlertDTO, error) {
	now := s.now()
	deadline := now.AddDate(0, 0, s.horizonDays)
	meds, err := s.medRepo.ListExpiringBefore(deadline)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.ExpiryAlertDTO, 0, len(meds))
	for _, m := range meds {
		if m.ExpirationDate == nil || m.CurrentStock <= 0 {
			continue
		}
		days := domainpharmacy.DaysUntil(now, *m.ExpirationDate)
		alerts = append(alerts, dto.ExpiryAlertDTO{
			MedicationID:   m.ID,
			Name:           m.Name,
			CurrentStock:   m.CurrentStock,
			ExpirationDate: *m.ExpirationDate,
			DaysRemaining:  days,
			Urgency:        domainpharmacy.ExpiryUrgency(days),
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts, nil
}
