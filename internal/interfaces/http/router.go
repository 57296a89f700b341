package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/clinicadev/clinica-api/internal/application/auth"
	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
	"github.com/clinicadev/clinica-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MedicationUC   *pharmacy.MedicationUseCase
	ExpiryScanner  *pharmacy.ExpiryScanner
	SupplierUC     *pharmacy.SupplierUseCase
	OrderUC        *pharmacy.SupplierOrderUseCase
	OrderDocUC     *pharmacy.OrderDocumentUseCase
	PrescriptionUC *pharmacy.PrescriptionUseCase
	AuthUC         *auth.AuthUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	pharmacyStaff := RequireRole(entity.RoleAdmin, entity.RoleFarmaceutico)
	clinicians := RequireRole(entity.RoleAdmin, entity.RoleMedico)

	// Medications: lectura para todos los roles, escritura para farmacia
	medications := protected.Group("/medications")
	medicationHandler := NewMedicationHandler(deps.MedicationUC, deps.ExpiryScanner)
	medications.Get("/", medicationHandler.List)
	medications.Get("/low-stock", medicationHandler.ListLowStock)
	medications.Get("/expiry-alerts", medicationHandler.ListExpiryAlerts)
	medications.Post("/", pharmacyStaff, medicationHandler.Create)
	medications.Get("/:id", medicationHandler.GetByID)
	medications.Put("/:id", pharmacyStaff, medicationHandler.Update)
	medications.Delete("/:id", pharmacyStaff, medicationHandler.Delete)
	medications.Post("/:id/adjust", pharmacyStaff, medicationHandler.AdjustStock)
	medications.Get("/:id/movements", medicationHandler.ListMovements)

	// Suppliers (farmacia)
	suppliers := protected.Group("/suppliers", pharmacyStaff)
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)

	// Orders (farmacia)
	orders := protected.Group("/orders", pharmacyStaff)
	orderHandler := NewOrderHandler(deps.OrderUC, deps.OrderDocUC)
	orders.Post("/", orderHandler.Create)
	orders.Get("/pending", orderHandler.ListPending)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/receive", orderHandler.Receive)
	orders.Post("/:id/lines/:line_id/receive", orderHandler.ReceiveLine)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Get("/:id/pdf", orderHandler.DownloadPDF)

	// Prescriptions: los médicos las crean, farmacia las dispensa
	prescriptions := protected.Group("/prescriptions")
	prescriptionHandler := NewPrescriptionHandler(deps.PrescriptionUC)
	prescriptions.Post("/", clinicians, prescriptionHandler.Create)
	prescriptions.Get("/pending", prescriptionHandler.ListPending)
	prescriptions.Put("/:id", clinicians, prescriptionHandler.Update)
	prescriptions.Post("/:id/deliver", pharmacyStaff, prescriptionHandler.Deliver)
	prescriptions.Post("/:id/cancel", prescriptionHandler.Cancel)
}
