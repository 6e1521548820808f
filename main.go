package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/config"
	"github.com/tradesystem/ipo-simulation/handlers"
	"github.com/tradesystem/ipo-simulation/jobs"
	"github.com/tradesystem/ipo-simulation/repository"
	"github.com/tradesystem/ipo-simulation/services"
	"github.com/tradesystem/ipo-simulation/shared"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// In-memory ledger seeded with demo data
	ledger := repository.NewLedger()
	locks := shared.NewKeyedLockRegistry()

	// Initialize services
	investorService := services.NewInvestorService(ledger)
	subscriptionService := services.NewSubscriptionService(ledger, locks)
	drawEngine := services.NewDefaultDrawEngine(ledger, locks)
	adminService := services.NewAdminService(ledger, drawEngine)

	// Initialize handlers
	investorHandler := handlers.NewInvestorHandler(investorService)
	ipoHandler := handlers.NewIPOHandler(adminService, subscriptionService)
	adminHandler := handlers.NewAdminHandler(adminService, subscriptionService)

	// Start the draw scheduler
	if cfg.AutoDrawEnabled {
		drawJob := jobs.NewDrawSchedulerJob(adminService, cfg.AutoDrawRefund)
		go func() {
			ticker := time.NewTicker(cfg.GetAutoDrawInterval())
			defer ticker.Stop()
			for range ticker.C {
				drawJob.Run()
			}
		}()
		logrus.WithFields(logrus.Fields{
			"interval":      cfg.GetAutoDrawInterval(),
			"refund_losers": cfg.AutoDrawRefund,
		}).Info("Draw scheduler started")
	}

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")

	// Auth Routes
	api.Post("/auth/login", investorHandler.Login)
	api.Post("/auth/register", investorHandler.Register)

	// Investor Routes
	api.Get("/investors/:id", investorHandler.GetInvestor)
	api.Get("/investors/:id/records", investorHandler.GetRecords)
	api.Post("/investors/:id/deposit", investorHandler.Deposit)

	// IPO Routes
	api.Get("/ipos", ipoHandler.GetIPOs)
	api.Get("/ipos/open", ipoHandler.GetOpenIPOs)
	api.Get("/ipos/:id", ipoHandler.GetIPOByID)
	api.Post("/ipos/:id/apply", ipoHandler.Apply)

	// Admin Routes
	admin := api.Group("/admin")
	// TODO: Add auth middleware
	admin.Post("/ipos", adminHandler.PublishIPO)
	admin.Post("/ipos/:id/draw", adminHandler.ExecuteDraw)
	admin.Post("/reset", adminHandler.Reset)
	admin.Get("/metrics", adminHandler.GetMetrics)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
