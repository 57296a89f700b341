package pharmacy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
	"github.com/clinicadev/clinica-api/internal/application/ports"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del alertado de umbrales (matriz de transiciones old→new) y del escaneo
// de vencimientos.
// ──────────────────────────────────────────────────────────────────────────────

func testMed() *entity.Medication {
	return &entity.Medication{
		ID:           "med-1",
		Name:         "Ibuprofeno 400 mg",
		CurrentStock: 3,
		MinimumStock: 10,
	}
}

func TestAlerter_EntradaAOutOfStock(t *testing.T) {
	notifier := &fakeNotifier{}
	alerter := pharmacy.NewThresholdAlerter(notifier, logger.Nop())

	alerter.StatusChanged(context.Background(), testMed(),
		entity.StockStatusLowStock, entity.StockStatusOutOfStock)

	farmacia := notifier.sentTo(entity.RoleFarmaceutico)
	require.Len(t, farmacia, 1, "alerta urgente a farmacia al agotarse")
	assert.Equal(t, ports.UrgencyHigh, farmacia[0].Urgency)
	assert.Equal(t, ports.CategoryStockAlert, farmacia[0].Category)
	assert.Equal(t, "med-1", farmacia[0].TargetRef)

	admin := notifier.sentTo(entity.RoleAdmin)
	require.Len(t, admin, 1, "informativa silenciosa a administración")
	assert.Equal(t, ports.UrgencySilent, admin[0].Urgency)
}

func TestAlerter_InStockALowStock(t *testing.T) {
	notifier := &fakeNotifier{}
	alerter := pharmacy.NewThresholdAlerter(notifier, logger.Nop())

	alerter.StatusChanged(context.Background(), testMed(),
		entity.StockStatusInStock, entity.StockStatusLowStock)

	require.Len(t, notifier.sent, 1, "solo una alerta estándar a farmacia")
	assert.Equal(t, ports.UrgencyNormal, notifier.sent[0].Urgency)
	assert.Equal(t, []string{entity.RoleFarmaceutico}, notifier.sent[0].Roles)
}

// Mejoras y transiciones sin cambio no generan ruido.
func TestAlerter_MejorasYSinCambioNoAlertan(t *testing.T) {
	cases := []struct {
		name     string
		old, new string
	}{
		{"sin cambio low→low", entity.StockStatusLowStock, entity.StockStatusLowStock},
		{"sin cambio in→in", entity.StockStatusInStock, entity.StockStatusInStock},
		{"mejora out→low", entity.StockStatusOutOfStock, entity.StockStatusLowStock},
		{"mejora out→in", entity.StockStatusOutOfStock, entity.StockStatusInStock},
		{"mejora low→in", entity.StockStatusLowStock, entity.StockStatusInStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			alerter := pharmacy.NewThresholdAlerter(notifier, logger.Nop())
			alerter.StatusChanged(context.Background(), testMed(), tc.old, tc.new)
			assert.Empty(t, notifier.sent, "la transición %s→%s no debe alertar", tc.old, tc.new)
		})
	}
}

// El fallo del notificador se absorbe: nunca llega al caller.
func TestAlerter_FalloDelNotificadorNoSePropaga(t *testing.T) {
	notifier := &fakeNotifier{failErr: errors.New("transporte caído")}
	alerter := pharmacy.NewThresholdAlerter(notifier, logger.Nop())

	assert.NotPanics(t, func() {
		alerter.StatusChanged(context.Background(), testMed(),
			entity.StockStatusInStock, entity.StockStatusOutOfStock)
	})
}

// ── Escaneo de vencimientos ───────────────────────────────────────────────────

func expiringMed(s *memStore, id string, stock, daysOut int, now time.Time) {
	exp := now.AddDate(0, 0, daysOut)
	s.meds[id] = &entity.Medication{
		ID:             id,
		Name:           id,
		CurrentStock:   stock,
		MinimumStock:   1,
		StockStatus:    entity.StockStatusInStock,
		ExpirationDate: &exp,
	}
}

func TestExpiryScanner_ClasificaUrgencias(t *testing.T) {
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	s := newMemStore()
	expiringMed(s, "med-15d", 10, 15, now)
	expiringMed(s, "med-45d", 10, 45, now)
	expiringMed(s, "med-75d", 10, 75, now)
	expiringMed(s, "med-200d", 10, 200, now) // fuera del horizonte de 90 días
	expiringMed(s, "med-sin-stock", 0, 5, now)

	scanner := pharmacy.NewExpiryScannerWithClock(&memMedRepo{s: s}, 90, func() time.Time { return now })

	alerts, err := scanner.ListExpiryAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 3, "solo medicamentos con stock dentro del horizonte")

	// Ordenadas por días restantes, más urgentes primero.
	assert.Equal(t, "med-15d", alerts[0].MedicationID)
	assert.Equal(t, 15, alerts[0].DaysRemaining)
	assert.Equal(t, "med-45d", alerts[1].MedicationID)
	assert.Equal(t, "med-75d", alerts[2].MedicationID)

	assert.Equal(t, "high", alerts[0].Urgency, "≤30 días es urgencia alta")
	assert.Equal(t, "medium", alerts[1].Urgency, "≤60 días es urgencia media")
	assert.Equal(t, "low", alerts[2].Urgency, "el resto del horizonte es baja")
}
