package pharmacy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicadev/clinica-api/internal/application/dto"
	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de prescripciones: la deducción de stock ocurre al dispensar (no al
// prescribir), la marca delivered y la salida se confirman juntas, y una
// prescripción solo se dispensa una vez.
// ──────────────────────────────────────────────────────────────────────────────

const testMedico = "00000000-0000-0000-0000-0000000000bb"

type rxFixture struct {
	s        *memStore
	notifier *fakeNotifier
	audit    *fakeAudit
	uc       *pharmacy.PrescriptionUseCase
}

func newRxFixture(t *testing.T) *rxFixture {
	t.Helper()
	s := newMemStore()
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	alerter := pharmacy.NewThresholdAlerter(notifier, logger.Nop())
	engine := pharmacy.NewStockEngine(&memTxRunner{s: s}, alerter)
	uc := pharmacy.NewPrescriptionUseCase(
		&memTxRunner{s: s}, &memRxRepo{s: s}, &memMedRepo{s: s}, engine, audit, logger.Nop(),
	)
	seedMedication(s, "med-1", 20, 5)
	return &rxFixture{s: s, notifier: notifier, audit: audit, uc: uc}
}

func (f *rxFixture) prescribe(t *testing.T, quantity int) *dto.PrescriptionResponse {
	t.Helper()
	rx, err := f.uc.Create(context.Background(), testMedico, dto.CreatePrescriptionRequest{
		PatientID:    "pat-1",
		MedicationID: "med-1",
		Quantity:     quantity,
		Instructions: "1 cada 8 horas",
	})
	require.NoError(t, err)
	return rx
}

// Caso: prescribir no toca el stock; dispensar descuenta la cantidad prescrita
// y deja la prescripción delivered con ledger de una fila.
func TestRx_DispensarDescuentaStock(t *testing.T) {
	f := newRxFixture(t)
	rx := f.prescribe(t, 4)

	assert.Equal(t, 20, f.s.meds["med-1"].CurrentStock, "prescribir no deduce stock")
	assert.Empty(t, f.s.movements)

	out, err := f.uc.Deliver(context.Background(), testActor, rx.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.PrescriptionStatusDelivered, out.Status)
	assert.Equal(t, testActor, out.DeliveredBy)
	require.NotNil(t, out.DeliveredAt)

	assert.Equal(t, 16, f.s.meds["med-1"].CurrentStock)
	movs := f.s.movementsFor("med-1")
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementKindOut, movs[0].Kind)
	assert.Equal(t, -4, movs[0].Quantity)
	assert.Contains(t, movs[0].Reason, rx.ID, "el motivo referencia la receta")
	assert.Contains(t, movs[0].Reason, "pat-1", "el motivo referencia al paciente")

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "prescription.delivered", f.audit.entries[0].Action)
}

// Caso: dispensar dos veces la misma prescripción → conflicto, sin doble deducción.
func TestRx_DobleDispensacionRechazada(t *testing.T) {
	f := newRxFixture(t)
	rx := f.prescribe(t, 4)
	ctx := context.Background()

	_, err := f.uc.Deliver(ctx, testActor, rx.ID)
	require.NoError(t, err)

	_, err = f.uc.Deliver(ctx, testActor, rx.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 16, f.s.meds["med-1"].CurrentStock, "sin segunda deducción")
	assert.Len(t, f.s.movements, 1, "sin fila de ledger extra")
}

// Caso: stock insuficiente al dispensar. La deducción recorta en cero: se
// entrega lo que hay, el ledger registra la salida real y la receta queda
// delivered (la entrega física ya ocurrió en ventanilla).
func TestRx_DispensarConRecorteEnCero(t *testing.T) {
	f := newRxFixture(t)
	f.s.meds["med-1"].CurrentStock = 3
	f.s.meds["med-1"].StockStatus = entity.StockStatusLowStock
	rx := f.prescribe(t, 5)

	out, err := f.uc.Deliver(context.Background(), testActor, rx.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.PrescriptionStatusDelivered, out.Status)
	assert.Equal(t, 0, f.s.meds["med-1"].CurrentStock)
	movs := f.s.movementsFor("med-1")
	require.Len(t, movs, 1)
	assert.Equal(t, -3, movs[0].Quantity, "solo se descuenta lo disponible")

	alerts := f.notifier.sentTo(entity.RoleFarmaceutico)
	require.NotEmpty(t, alerts, "entrar a out_of_stock alerta a farmacia")
	assert.Equal(t, "high", alerts[0].Urgency)
}

// Caso: la marca delivered y la deducción son una sola unidad atómica. Si la
// deducción falla (medicamento borrado entre prescripción y dispensación),
// la prescripción sigue pendiente.
func TestRx_EntregaAtomicaConDeduccion(t *testing.T) {
	f := newRxFixture(t)
	rx := f.prescribe(t, 4)
	delete(f.s.meds, "med-1")

	_, err := f.uc.Deliver(context.Background(), testActor, rx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, _ := (&memRxRepo{s: f.s}).GetByID(rx.ID)
	assert.Equal(t, entity.PrescriptionStatusPending, stored.Status,
		"si la deducción no se confirma, la entrega tampoco")
	assert.Empty(t, f.s.movements)
}

// Caso: editar y cancelar solo mientras la prescripción está pendiente.
func TestRx_EditarYCancelarSoloPendientes(t *testing.T) {
	f := newRxFixture(t)
	ctx := context.Background()

	rx := f.prescribe(t, 4)
	updated, err := f.uc.Update(ctx, testMedico, rx.ID, dto.UpdatePrescriptionRequest{Quantity: 6, Instructions: "2 cada 12 horas"})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Quantity)

	_, err = f.uc.Deliver(ctx, testActor, rx.ID)
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, testMedico, rx.ID, dto.UpdatePrescriptionRequest{Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrConflict, "una receta dispensada no se edita")

	err = f.uc.Cancel(ctx, testMedico, rx.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "una receta dispensada no se cancela")

	rx2 := f.prescribe(t, 2)
	require.NoError(t, f.uc.Cancel(ctx, testMedico, rx2.ID))
	stored, _ := (&memRxRepo{s: f.s}).GetByID(rx2.ID)
	assert.Equal(t, entity.PrescriptionStatusCancelled, stored.Status)
	assert.Equal(t, 14, f.s.meds["med-1"].CurrentStock, "cancelar no toca stock (solo la entrega de rx descontó 6)")
}

// Caso: validaciones de creación.
func TestRx_CrearValidaciones(t *testing.T) {
	f := newRxFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, testMedico, dto.CreatePrescriptionRequest{PatientID: "p", MedicationID: "med-1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad no positiva")

	_, err = f.uc.Create(ctx, testMedico, dto.CreatePrescriptionRequest{PatientID: "p", MedicationID: "fantasma", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound, "medicamento inexistente")

	_, err = f.uc.Create(ctx, "", dto.CreatePrescriptionRequest{PatientID: "p", MedicationID: "med-1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin actor")
}

// Caso: listar pendientes excluye dispensadas y canceladas.
func TestRx_ListPending(t *testing.T) {
	f := newRxFixture(t)
	ctx := context.Background()

	rx1 := f.prescribe(t, 1)
	rx2 := f.prescribe(t, 2)
	rx3 := f.prescribe(t, 3)
	_, err := f.uc.Deliver(ctx, testActor, rx1.ID)
	require.NoError(t, err)
	require.NoError(t, f.uc.Cancel(ctx, testMedico, rx2.ID))

	pending, err := f.uc.ListPending(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rx3.ID, pending[0].ID)
}
