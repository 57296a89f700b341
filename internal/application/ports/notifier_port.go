package ports

import "context"

// Urgencias de notificación.
const (
	UrgencyHigh   = "high"
	UrgencyNormal = "normal"
	UrgencySilent = "silent" // informativa, sin aviso activo
)

// Categorías de notificación del módulo de farmacia.
const (
	CategoryStockAlert  = "stock_alert"
	CategoryExpiryAlert = "expiry_alert"
)

// Notification es el mensaje a entregar a una audiencia (roles o usuarios puntuales).
// El transporte de entrega es responsabilidad del adaptador.
type Notification struct {
	Roles     []string // audiencia por rol (ej. farmaceutico, admin)
	UserIDs   []string // audiencia por usuario puntual
	Title     string
	Body      string
	Urgency   string // high, normal, silent
	Category  string
	TargetRef string // entidad referida (ej. MedicationID)
}

// Notifier define el puerto de salida del servicio de notificaciones.
// Las alertas de umbral son best-effort: un error aquí se registra en el log
// pero nunca revierte la mutación que las originó.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
