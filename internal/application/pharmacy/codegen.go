package pharmacy

import (
	"fmt"
	"math/rand"
	"time"
)

// Prefijos de los códigos legibles generados.
const (
	OrderNumberPrefix = "OC" // orden de compra
	BatchNumberPrefix = "LT" // lote de recepción
)

// maxCodeAttempts intentos de unicidad antes de usar el fallback con dígito extra.
const maxCodeAttempts = 5

// UniqueChecker informa si un código ya está en uso.
type UniqueChecker func(code string) (bool, error)

// CodeAllocator asigna códigos únicos legibles (número de orden, número de lote).
// Abstraído como interfaz para poder inyectar una secuencia determinista en tests.
type CodeAllocator interface {
	Allocate(prefix string, taken UniqueChecker) (string, error)
}

// DateCodeAllocator genera códigos con fecha codificada y sufijo numérico
// aleatorio: PREFIJO-AAMMDD-NNNN. Verifica unicidad con reintentos acotados;
// si se agotan, añade un dígito aleatorio extra al último candidato.
type DateCodeAllocator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewDateCodeAllocator construye el generador con reloj y aleatoriedad reales.
func NewDateCodeAllocator() *DateCodeAllocator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &DateCodeAllocator{now: time.Now, intn: rng.Intn}
}

// NewDateCodeAllocatorWith permite inyectar reloj y fuente aleatoria (tests).
func NewDateCodeAllocatorWith(now func() time.Time, intn func(n int) int) *DateCodeAllocator {
	return &DateCodeAllocator{now: now, intn: intn}
}

// Allocate genera un código único según el checker. taken puede ser nil si el
// llamador no necesita verificación (no recomendado para órdenes).
func (a *DateCodeAllocator) Allocate(prefix string, taken UniqueChecker) (string, error) {
	date := a.now().Format("060102")
	var code string
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code = fmt.Sprintf("%s-%s-%04d", prefix, date, a.intn(10000))
		if taken == nil {
			return code, nil
		}
		exists, err := taken(code)
		if err != nil {
			return "", fmt.Errorf("verificar unicidad de código: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	// Fallback: dígito aleatorio extra sobre el último candidato.
	return fmt.Sprintf("%s%d", code, a.intn(10)), nil
}
