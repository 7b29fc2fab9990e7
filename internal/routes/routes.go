package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/handlers"
	"github.com/haulworks/haulbooks-backend/internal/services"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// Services bundles the wired service layer for route setup
type Services struct {
	Loads       *services.LoadService
	Ledger      *services.LedgerService
	Settlements *services.SettlementService
	Invoices    *services.InvoiceService
	AR          *services.ARService
	Reports     *services.ReportService
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, svc *Services) {

	driverHandler := handlers.NewDriverHandler(store)
	loadHandler := handlers.NewLoadHandler(store, svc.Loads)
	expenseHandler := handlers.NewExpenseHandler(store, svc.Ledger)
	settlementHandler := handlers.NewSettlementHandler(store, svc.Settlements)
	invoiceHandler := handlers.NewInvoiceHandler(store, svc.Invoices, svc.AR)
	reportHandler := handlers.NewReportHandler(svc.AR, svc.Reports)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	drivers := api.Group("/drivers")
	drivers.Post("/", driverHandler.CreateDriver)
	drivers.Get("/", driverHandler.GetDrivers)
	drivers.Get("/:id", driverHandler.GetDriver)

	loads := api.Group("/loads")
	loads.Post("/", loadHandler.CreateLoad)
	loads.Get("/", loadHandler.GetLoadsByStatus)
	loads.Get("/:id", loadHandler.GetLoad)
	loads.Post("/:id/dispatch", loadHandler.DispatchLoad)
	loads.Post("/:id/deliver", loadHandler.DeliverLoad)

	expenses := api.Group("/expenses")
	expenses.Post("/", expenseHandler.CreateExpense)
	expenses.Get("/driver/:driverId", expenseHandler.GetDriverExpenses)
	expenses.Get("/:id", expenseHandler.GetExpense)

	settlements := api.Group("/settlements")
	settlements.Post("/preview", settlementHandler.PreviewSettlement)
	settlements.Post("/", settlementHandler.GenerateSettlement)
	settlements.Get("/driver/:driverId", settlementHandler.GetDriverSettlements)
	settlements.Get("/:id", settlementHandler.GetSettlement)
	settlements.Get("/:id/export", settlementHandler.ExportSettlement)
	settlements.Post("/:id/recompute", settlementHandler.RecomputeSettlement)

	invoices := api.Group("/invoices")
	invoices.Post("/", invoiceHandler.IssueInvoice)
	invoices.Get("/", invoiceHandler.GetInvoices)
	invoices.Get("/:id", invoiceHandler.GetInvoice)
	invoices.Post("/:id/payments", invoiceHandler.RecordPayment)

	reports := api.Group("/reports")
	reports.Get("/ar-aging", reportHandler.ARAging)
	reports.Get("/ar-aging/export", reportHandler.ExportARAging)
	reports.Get("/revenue", reportHandler.Revenue)
}
