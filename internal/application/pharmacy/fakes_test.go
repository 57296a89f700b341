package pharmacy_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicadev/clinica-api/internal/application/ports"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
	"github.com/clinicadev/clinica-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria compartidos por los tests del paquete.
//
// memStore es la "base de datos"; memTxRunner serializa las transacciones con
// un mutex, igual que el SELECT FOR UPDATE de PostgreSQL serializa mutaciones
// concurrentes sobre la misma fila.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	meds      map[string]*entity.Medication
	movements []*entity.StockMovement
	orders    map[string]*entity.SupplierOrder
	rxs       map[string]*entity.Prescription
	suppliers map[string]*entity.Supplier
}

func newMemStore() *memStore {
	return &memStore{
		meds:      make(map[string]*entity.Medication),
		orders:    make(map[string]*entity.SupplierOrder),
		rxs:       make(map[string]*entity.Prescription),
		suppliers: make(map[string]*entity.Supplier),
	}
}

// movementsFor devuelve los movimientos de un medicamento en orden de inserción.
func (s *memStore) movementsFor(medicationID string) []*entity.StockMovement {
	var out []*entity.StockMovement
	for _, m := range s.movements {
		if m.MedicationID == medicationID {
			out = append(out, m)
		}
	}
	return out
}

// ledgerSum suma los deltas firmados del ledger de un medicamento.
func (s *memStore) ledgerSum(medicationID string) int {
	sum := 0
	for _, m := range s.movementsFor(medicationID) {
		sum += m.Quantity
	}
	return sum
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type memTxRunner struct {
	s *memStore
}

func (r *memTxRunner) Run(_ context.Context, fn func(repository.MedicationRepository, repository.StockMovementRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&memMedRepo{s: r.s}, &memMovRepo{s: r.s})
}

func (r *memTxRunner) RunOrder(_ context.Context, fn func(repository.MedicationRepository, repository.StockMovementRepository, repository.SupplierOrderRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&memMedRepo{s: r.s}, &memMovRepo{s: r.s}, &memOrderRepo{s: r.s})
}

func (r *memTxRunner) RunPrescription(_ context.Context, fn func(repository.MedicationRepository, repository.StockMovementRepository, repository.PrescriptionRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&memMedRepo{s: r.s}, &memMovRepo{s: r.s}, &memRxRepo{s: r.s})
}

// ── MedicationRepository ──────────────────────────────────────────────────────

type memMedRepo struct {
	s *memStore
}

func copyMed(m *entity.Medication) *entity.Medication {
	cp := *m
	return &cp
}

func (r *memMedRepo) Create(m *entity.Medication) error {
	r.s.meds[m.ID] = copyMed(m)
	return nil
}

func (r *memMedRepo) GetByID(id string) (*entity.Medication, error) {
	m, ok := r.s.meds[id]
	if !ok {
		return nil, nil
	}
	return copyMed(m), nil
}

func (r *memMedRepo) GetForUpdate(id string) (*entity.Medication, error) {
	return r.GetByID(id)
}

func (r *memMedRepo) UpdateStock(id string, currentStock int, stockStatus string) error {
	m := r.s.meds[id]
	m.CurrentStock = currentStock
	m.StockStatus = stockStatus
	return nil
}

func (r *memMedRepo) UpdateUnitPrice(id string, unitPrice decimal.Decimal) error {
	r.s.meds[id].UnitPrice = unitPrice
	return nil
}

func (r *memMedRepo) Update(m *entity.Medication) error {
	r.s.meds[m.ID] = copyMed(m)
	return nil
}

func (r *memMedRepo) Delete(id string) error {
	delete(r.s.meds, id)
	return nil
}

func (r *memMedRepo) List(limit, offset int) ([]*entity.Medication, error) {
	var out []*entity.Medication
	for _, m := range r.s.meds {
		out = append(out, copyMed(m))
	}
	return out, nil
}

func (r *memMedRepo) ListLowStock() ([]*entity.Medication, error) {
	var out []*entity.Medication
	for _, m := range r.s.meds {
		if m.StockStatus == entity.StockStatusLowStock || m.StockStatus == entity.StockStatusOutOfStock {
			out = append(out, copyMed(m))
		}
	}
	return out, nil
}

func (r *memMedRepo) ListExpiringBefore(deadline time.Time) ([]*entity.Medication, error) {
	var out []*entity.Medication
	for _, m := range r.s.meds {
		if m.ExpirationDate != nil && m.CurrentStock > 0 && m.ExpirationDate.Before(deadline) {
			out = append(out, copyMed(m))
		}
	}
	return out, nil
}

// ── StockMovementRepository ───────────────────────────────────────────────────

type memMovRepo struct {
	s *memStore
}

func (r *memMovRepo) Create(m *entity.StockMovement) error {
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMovRepo) ListByMedication(medicationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movementsFor(medicationID) {
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMovRepo) HasMovements(medicationID string) (bool, error) {
	return len(r.s.movementsFor(medicationID)) > 0, nil
}

func (r *memMovRepo) BatchNumberExists(batchNumber string) (bool, error) {
	for _, m := range r.s.movements {
		if m.BatchNumber == batchNumber {
			return true, nil
		}
	}
	return false, nil
}

// ── SupplierRepository ────────────────────────────────────────────────────────

type memSupplierRepo struct {
	s *memStore
}

func (r *memSupplierRepo) Create(sup *entity.Supplier) error {
	cp := *sup
	r.s.suppliers[sup.ID] = &cp
	return nil
}

func (r *memSupplierRepo) GetByID(id string) (*entity.Supplier, error) {
	sup, ok := r.s.suppliers[id]
	if !ok {
		return nil, nil
	}
	cp := *sup
	return &cp, nil
}

func (r *memSupplierRepo) List(limit, offset int) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	for _, sup := range r.s.suppliers {
		cp := *sup
		out = append(out, &cp)
	}
	return out, nil
}

// ── SupplierOrderRepository ───────────────────────────────────────────────────

type memOrderRepo struct {
	s *memStore
}

func copyOrder(o *entity.SupplierOrder) *entity.SupplierOrder {
	cp := *o
	cp.Lines = append([]entity.SupplierOrderLine(nil), o.Lines...)
	return &cp
}

func (r *memOrderRepo) Create(o *entity.SupplierOrder) error {
	r.s.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *memOrderRepo) GetByID(id string) (*entity.SupplierOrder, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (r *memOrderRepo) GetForUpdate(id string) (*entity.SupplierOrder, error) {
	return r.GetByID(id)
}

func (r *memOrderRepo) UpdateStatus(id, status string) error {
	r.s.orders[id].Status = status
	return nil
}

func (r *memOrderRepo) UpdateLineReceived(lineID string, receivedQuantity int) error {
	for _, o := range r.s.orders {
		for i := range o.Lines {
			if o.Lines[i].ID == lineID {
				o.Lines[i].ReceivedQuantity = receivedQuantity
				return nil
			}
		}
	}
	return nil
}

func (r *memOrderRepo) ListPending(limit, offset int) ([]*entity.SupplierOrder, error) {
	var out []*entity.SupplierOrder
	for _, o := range r.s.orders {
		if o.Status == entity.OrderStatusOrdered || o.Status == entity.OrderStatusPartiallyReceived {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (r *memOrderRepo) OrderNumberExists(orderNumber string) (bool, error) {
	for _, o := range r.s.orders {
		if o.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

// ── PrescriptionRepository ────────────────────────────────────────────────────

type memRxRepo struct {
	s *memStore
}

func copyRx(rx *entity.Prescription) *entity.Prescription {
	cp := *rx
	return &cp
}

func (r *memRxRepo) Create(rx *entity.Prescription) error {
	r.s.rxs[rx.ID] = copyRx(rx)
	return nil
}

func (r *memRxRepo) GetByID(id string) (*entity.Prescription, error) {
	rx, ok := r.s.rxs[id]
	if !ok {
		return nil, nil
	}
	return copyRx(rx), nil
}

func (r *memRxRepo) GetForUpdate(id string) (*entity.Prescription, error) {
	return r.GetByID(id)
}

func (r *memRxRepo) Update(rx *entity.Prescription) error {
	r.s.rxs[rx.ID] = copyRx(rx)
	return nil
}

func (r *memRxRepo) ListPending(limit, offset int) ([]*entity.Prescription, error) {
	var out []*entity.Prescription
	for _, rx := range r.s.rxs {
		if rx.Status == entity.PrescriptionStatusPending {
			out = append(out, copyRx(rx))
		}
	}
	return out, nil
}

// ── Notifier y AuditSink ──────────────────────────────────────────────────────

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []ports.Notification
	failErr error
}

func (n *fakeNotifier) Notify(_ context.Context, notification ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failErr != nil {
		return n.failErr
	}
	n.sent = append(n.sent, notification)
	return nil
}

// sentTo devuelve las notificaciones cuya audiencia incluye el rol dado.
func (n *fakeNotifier) sentTo(role string) []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ports.Notification
	for _, notif := range n.sent {
		for _, r := range notif.Roles {
			if r == role {
				out = append(out, notif)
			}
		}
	}
	return out
}

type auditEntry struct {
	ActorID  string
	Action   string
	EntityID string
	Details  string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) Record(_ context.Context, actorID, action, entityID, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{ActorID: actorID, Action: action, EntityID: entityID, Details: details})
	return nil
}
