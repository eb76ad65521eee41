package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/application/reporting"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine    *allocation.AllocationEngine
	Lifecycle *allocation.UnitLifecycle
	Reporting *reporting.ReportingUseCase
	Documents *reporting.DocumentsUseCase // opcional
	JWTSecret string
	Logger    *logger.Logger
}

// Router registra las rutas de la API. Todo /api exige Bearer Token; las
// escrituras además exigen rol.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log != nil {
		log = log.Component("http")
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	distributor := RequireRole(entity.RoleDistributor, entity.RoleAdmin)
	association := RequireRole(entity.RoleAssociation, entity.RoleAdmin)
	field := RequireRole(entity.RoleFarmer, entity.RoleAssociation, entity.RoleAdmin)
	admin := RequireRole(entity.RoleAdmin)
	operations := RequireRole(entity.RoleProcessor, entity.RoleAdmin)

	allocHandler := NewAllocationHandler(deps.Engine, deps.Lifecycle, log)
	stockHandler := NewStockHandler(deps.Engine, log)
	deliveryHandler := NewDeliveryHandler(deps.Lifecycle, log)
	reportHandler := NewReportHandler(deps.Reporting, deps.Documents, log)

	// Asignaciones raíz
	allocations := api.Group("/allocations")
	allocations.Post("/", distributor, allocHandler.CreateRoot)
	allocations.Get("/", allocHandler.List)
	allocations.Get("/:id", allocHandler.GetByID)
	allocations.Patch("/:id", distributor, allocHandler.UpdateRemarks)
	allocations.Delete("/:id", distributor, allocHandler.Delete)
	allocations.Post("/:id/cancel", distributor, allocHandler.Cancel)
	allocations.Post("/:id/children", association, allocHandler.CreateChild)
	allocations.Get("/:id/statement.pdf", reportHandler.RootStatementPDF)

	// Sub-asignaciones
	children := api.Group("/children")
	children.Get("/:id", allocHandler.GetChild)
	children.Delete("/:id", association, allocHandler.DeleteChild)
	children.Post("/:id/planted", field, allocHandler.MarkPlanted)
	children.Post("/:id/outcome", field, allocHandler.MarkOutcome)

	// Lotes de origen (sincronizados desde calidad)
	batches := api.Group("/source-batches")
	batches.Put("/:id", admin, stockHandler.UpsertSourceBatch)
	batches.Get("/:id", stockHandler.GetSourceBatch)

	// Stock
	stock := api.Group("/stock")
	stock.Post("/", admin, stockHandler.Admit)
	stock.Get("/", stockHandler.List)
	stock.Get("/:id", stockHandler.GetByID)
	stock.Delete("/:id", admin, stockHandler.Delete)
	stock.Post("/:id/withdrawn", admin, stockHandler.MarkWithdrawn)
	stock.Post("/:id/withdrawals", operations, stockHandler.CreateWithdrawal)
	api.Get("/withdrawals/:id", stockHandler.GetWithdrawal)

	// Entregas
	deliveries := api.Group("/deliveries")
	deliveries.Post("/", operations, deliveryHandler.Dispatch)
	deliveries.Get("/:id", deliveryHandler.GetByID)
	deliveries.Post("/:id/state", operations, deliveryHandler.Advance)
	deliveries.Post("/:id/paid", admin, deliveryHandler.MarkPaid)
	deliveries.Get("/:id/note.pdf", reportHandler.DeliveryNotePDF)

	// Reportes
	reports := api.Group("/reports")
	reports.Get("/allocations/:id", reportHandler.RootSummary)
	reports.Get("/distributors/:id?", reportHandler.DistributorDashboard)
	reports.Get("/stock", reportHandler.StockSummary)
	reports.Get("/deliveries", reportHandler.DeliverySummary)
	reports.Get("/overview", reportHandler.Overview)
}
