package pharmacy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del asignador de códigos: formato con fecha, reintentos de unicidad y
// fallback con dígito extra. El reloj y la fuente aleatoria se inyectan para
// que cada caso sea determinista.
// ──────────────────────────────────────────────────────────────────────────────

func fixedClock() time.Time {
	return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
}

// sequenceIntn devuelve los valores de la secuencia en orden; agotada la
// secuencia, repite el último.
func sequenceIntn(seq ...int) func(int) int {
	i := 0
	return func(int) int {
		v := seq[i]
		if i < len(seq)-1 {
			i++
		}
		return v
	}
}

func TestAllocate_FormatoConFecha(t *testing.T) {
	alloc := pharmacy.NewDateCodeAllocatorWith(fixedClock, sequenceIntn(4821))

	code, err := alloc.Allocate(pharmacy.OrderNumberPrefix, nil)
	require.NoError(t, err)
	assert.Equal(t, "OC-250901-4821", code,
		"el código debe llevar prefijo, fecha AAMMDD y sufijo de 4 dígitos")
}

func TestAllocate_PrefijoLote(t *testing.T) {
	alloc := pharmacy.NewDateCodeAllocatorWith(fixedClock, sequenceIntn(7))

	code, err := alloc.Allocate(pharmacy.BatchNumberPrefix, nil)
	require.NoError(t, err)
	assert.Equal(t, "LT-250901-0007", code, "el sufijo se rellena a 4 dígitos")
}

func TestAllocate_ReintentaHastaEncontrarLibre(t *testing.T) {
	alloc := pharmacy.NewDateCodeAllocatorWith(fixedClock, sequenceIntn(1111, 2222, 3333))

	taken := func(code string) (bool, error) {
		// Los dos primeros candidatos ya existen.
		return code == "OC-250901-1111" || code == "OC-250901-2222", nil
	}

	code, err := alloc.Allocate(pharmacy.OrderNumberPrefix, taken)
	require.NoError(t, err)
	assert.Equal(t, "OC-250901-3333", code,
		"debe descartar los candidatos ocupados y quedarse con el primero libre")
}

func TestAllocate_FallbackConDigitoExtra(t *testing.T) {
	// Todos los candidatos colisionan: tras agotar los intentos, el último
	// candidato recibe un dígito aleatorio extra.
	alloc := pharmacy.NewDateCodeAllocatorWith(fixedClock, sequenceIntn(5555, 5555, 5555, 5555, 5555, 9))

	taken := func(string) (bool, error) { return true, nil }

	code, err := alloc.Allocate(pharmacy.OrderNumberPrefix, taken)
	require.NoError(t, err)
	assert.Equal(t, "OC-250901-55559", code,
		"agotados los reintentos, el fallback añade un dígito extra")
}

func TestAllocate_ErrorDelChecker(t *testing.T) {
	alloc := pharmacy.NewDateCodeAllocatorWith(fixedClock, sequenceIntn(1234))

	wantErr := errors.New("bd caída")
	_, err := alloc.Allocate(pharmacy.OrderNumberPrefix, func(string) (bool, error) {
		return false, wantErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr, "el error del checker debe propagarse envuelto")
}
