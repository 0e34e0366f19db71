// Package server assembles the fiber application: middleware, error
// rendering and the route table.
package server

import (
	"errors"
	"strings"
	"time"

	"seedprocure-backend/internal/access"
	"seedprocure-backend/internal/admin"
	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/audit"
	"seedprocure-backend/internal/auth"
	"seedprocure-backend/internal/config"
	"seedprocure-backend/internal/cycle"
	"seedprocure-backend/internal/dashboard"
	"seedprocure-backend/internal/logger"
	"seedprocure-backend/internal/metrics"
	"seedprocure-backend/internal/models"
	"seedprocure-backend/internal/pricing"
	"seedprocure-backend/internal/report"
	"seedprocure-backend/internal/shipment"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *logger.Logger
	Metrics *metrics.Recorder
	// Now overrides the clock of every component. Nil means time.Now in UTC.
	Now func() time.Time
}

// NewApp wires every component onto one fiber app.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(d.Log),
	})

	// CORS origins come comma separated from config
	corsOrigins := strings.Split(d.Config.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(requestLogger(d.Log))

	if reg := d.Metrics.Registry(); reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	machine := cycle.NewMachine(d.DB, d.Log, d.Metrics)
	agg := dashboard.NewAggregator(d.DB)
	if d.Now != nil {
		machine = machine.WithClock(d.Now)
		agg = agg.WithClock(d.Now)
	}
	policy := access.NewPolicy(d.DB)
	cycles := cycle.NewService(machine)
	lister := cycle.NewLister(machine, policy)
	prices := pricing.NewService(machine)
	allocator := shipment.NewAllocator(machine)
	exporter := report.NewExporter(d.DB)
	ttl := time.Duration(d.Config.TokenTTLHours) * time.Hour

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(d.DB))
	api.Post("/auth/login", auth.LoginHandler(d.DB, d.Config.JWTSecret, ttl))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.Config.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(d.DB))

	// Crop cycles
	protected.Get("/cycles/pending-samples", cycle.ListPendingSamplesHandler(lister))
	protected.Post("/cycles/:id/harvest", cycle.MarkHarvestedHandler(cycles))
	protected.Post("/cycles/:id/sample-received", cycle.MarkSampleReceivedHandler(cycles))
	protected.Post("/cycles/:id/sample", cycle.RecordSampleHandler(cycles))
	protected.Post("/cycles/:id/temporary-price", pricing.SetTemporaryPriceHandler(prices))
	protected.Post("/cycles/:id/final-price", pricing.FinalizePriceHandler(prices))
	protected.Post("/cycles/:id/weighing", cycle.RecordWeighingHandler(cycles))
	protected.Post("/cycles/:id/payment", cycle.SchedulePaymentHandler(cycles))
	protected.Post("/cycles/:id/paid", cycle.MarkFarmerPaidHandler(cycles))

	// Shipments
	protected.Post("/shipments", shipment.OpenShipmentHandler(allocator))
	protected.Get("/shipments/in-progress", shipment.ListInProgressHandler(allocator))
	protected.Get("/shipments/:id", shipment.GetShipmentHandler(allocator))
	protected.Post("/shipments/:id/allocate", shipment.AllocateHandler(allocator))
	protected.Post("/shipments/:id/close", shipment.CloseShipmentHandler(allocator))
	protected.Post("/shipments/:id/dispatch", shipment.DispatchHandler(allocator))

	// Dashboard & reports
	protected.Get("/dashboard/stats", dashboard.StatsHandler(agg))
	protected.Get("/reports/pending-payments.xlsx", report.PendingPaymentsHandler(exporter))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/employees", admin.CreateEmployeeHandler(d.DB))
	adminRoutes.Get("/employees", admin.ListEmployeesHandler(d.DB))
	adminRoutes.Post("/assignments", admin.AssignVarietyHandler(d.DB, policy))
	adminRoutes.Delete("/assignments", admin.UnassignVarietyHandler(d.DB, policy))
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(d.DB))

	return app
}

// ErrorHandler renders *apperr.Error as {success:false, error, message} with
// the status of its kind. Plain fiber errors keep the {"error": msg} shape.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			msg := ae.Message
			if msg == "" {
				msg = string(ae.Kind)
			}
			if ae.Kind == apperr.KindStorage {
				log.Error("storage failure", "path", c.Path(), "error", err)
			}
			return c.Status(ae.Status()).JSON(fiber.Map{
				"success": false,
				"error":   ae.Kind,
				"message": msg,
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		log.Error("unexpected error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}

func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// run the error handler now so the logged status is the final one
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return nil
	}
}
