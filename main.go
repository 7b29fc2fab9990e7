package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/database"
	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/routes"
	"github.com/haulworks/haulbooks-backend/internal/services"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found - using environment variables")
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Driver{},
			&models.Load{},
			&models.Expense{},
			&models.ExpenseLedger{},
			&models.Settlement{},
			&models.SettlementDeduction{},
			&models.Invoice{},
			&models.Payment{},
			&models.InvoiceCounter{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("Database migrations completed")

		store = storage.NewDatabaseStore(database.DB)
	}

	storage.SetStore(store)

	// Owner-operator commission rate, e.g. "0.12" for 12%
	commissionRate := services.DefaultCommissionRate
	if raw := os.Getenv("COMMISSION_RATE"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			log.Fatalf("Invalid COMMISSION_RATE %q: %v", raw, err)
		}
		commissionRate = parsed
	}

	// Initialize services
	calc := services.NewPayCalculator(commissionRate)
	ledger := services.NewLedgerService(store)
	svc := &routes.Services{
		Loads:       services.NewLoadService(store, calc),
		Ledger:      ledger,
		Settlements: services.NewSettlementService(store, calc, ledger),
		Invoices:    services.NewInvoiceService(store),
		AR:          services.NewARService(store),
		Reports:     services.NewReportService(store, calc),
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "HaulBooks Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Setup routes
	routes.SetupRoutes(app, store, svc)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Printf("HaulBooks Backend starting on port %s", port)
	log.Printf("Storage: %s", storageType())
	log.Printf("Owner-operator commission rate: %s", commissionRate)

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
