package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/clinicadev/clinica-api/internal/application/auth"
	"github.com/clinicadev/clinica-api/internal/application/pharmacy"
	infrapdf "github.com/clinicadev/clinica-api/internal/infrastructure/pdf"
	"github.com/clinicadev/clinica-api/internal/infrastructure/postgres"
	httpRouter "github.com/clinicadev/clinica-api/internal/interfaces/http"
	"github.com/clinicadev/clinica-api/pkg/config"
	"github.com/clinicadev/clinica-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios sobre el pool (los casos de uso transaccionales reciben
	// repos atados a la tx a través del TxRunner)
	medRepo := postgres.NewMedicationRepository(pool)
	movRepo := postgres.NewStockMovementRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	orderRepo := postgres.NewSupplierOrderRepository(pool)
	rxRepo := postgres.NewPrescriptionRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	auditSink := postgres.NewAuditRepository(pool)
	notifier := postgres.NewNotificationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Motor de stock + alertas de umbral
	alerter := pharmacy.NewThresholdAlerter(notifier, log)
	engine := pharmacy.NewStockEngine(txRunner, alerter)
	codes := pharmacy.NewDateCodeAllocator()

	medicationUC := pharmacy.NewMedicationUseCase(medRepo, movRepo, engine, auditSink, log)
	expiryScanner := pharmacy.NewExpiryScanner(medRepo, cfg.Pharmacy.ExpiryHorizonDays)
	supplierUC := pharmacy.NewSupplierUseCase(supplierRepo)
	orderUC := pharmacy.NewSupplierOrderUseCase(txRunner, orderRepo, supplierRepo, medRepo, engine, codes, auditSink, log)
	prescriptionUC := pharmacy.NewPrescriptionUseCase(txRunner, rxRepo, medRepo, engine, auditSink, log)

	// PDF de la orden de compra para el proveedor
	pdfGenerator := infrapdf.NewMarotoOrderPDFGenerator(cfg.App.Name)
	orderDocUC := pharmacy.NewOrderDocumentUseCase(orderRepo, supplierRepo, medRepo, pdfGenerator)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MedicationUC:   medicationUC,
		ExpiryScanner:  expiryScanner,
		SupplierUC:     supplierUC,
		OrderUC:        orderUC,
		OrderDocUC:     orderDocUC,
		PrescriptionUC: prescriptionUC,
		AuthUC:         authUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
