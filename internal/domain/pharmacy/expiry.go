package pharmacy

import "time"

// Urgencias del escaneo de vencimientos, por días restantes.
const (
	ExpiryUrgencyHigh   = "high"   // ≤ 30 días
	ExpiryUrgencyMedium = "medium" // ≤ 60 días
	ExpiryUrgencyLow    = "low"    // dentro del horizonte configurado
)

// ExpiryUrgency clasifica la urgencia de un vencimiento según los días restantes.
func ExpiryUrgency(daysRemaining int) string {
	switch {
	case daysRemaining <= 30:
		return ExpiryUrgencyHigh
	case daysRemaining <= 60:
		return ExpiryUrgencyMedium
	default:
		return ExpiryUrgencyLow
	}
}

// DaysUntil devuelve los días calendario entre now y la fecha de vencimiento
// (truncados a medianoche). Negativo si ya venció.
func DaysUntil(now, expiration time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expDay := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	return int(expDay.Sub(nowDay).Hours() / 24)
}
