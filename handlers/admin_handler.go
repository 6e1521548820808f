package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/services"
	"github.com/tradesystem/ipo-simulation/shared"
)

type AdminHandler struct {
	AdminService        *services.AdminService
	SubscriptionService *services.SubscriptionService
}

func NewAdminHandler(adminService *services.AdminService, subscriptionService *services.SubscriptionService) *AdminHandler {
	return &AdminHandler{
		AdminService:        adminService,
		SubscriptionService: subscriptionService,
	}
}

type drawRequest struct {
	RefundLosers bool `json:"refund_losers"`
}

// PublishIPO creates a new offering.
func (h *AdminHandler) PublishIPO(c *fiber.Ctx) error {
	var form services.PublishIPOForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	stock, err := h.AdminService.PublishIPO(form)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    stock,
	})
}

// ExecuteDraw manually triggers the lottery for an offering
func (h *AdminHandler) ExecuteDraw(c *fiber.Ctx) error {
	var req drawRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	logrus.WithField("stock_id", c.Params("id")).Info("Manual draw triggered via admin endpoint")

	result, err := h.AdminService.ExecuteDraw(c.Params("id"), req.RefundLosers)
	if err != nil {
		status := fiber.StatusConflict
		if shared.IsNotFound(err) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// Reset restores the demo data set.
func (h *AdminHandler) Reset(c *fiber.Ctx) error {
	h.AdminService.Reset()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Ledger reset to demo data",
	})
}

// GetMetrics returns per-service request metrics for debugging.
func (h *AdminHandler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"subscription": h.SubscriptionService.Metrics.Snapshot(),
			"draw":         h.AdminService.Draw.Metrics.Snapshot(),
		},
	})
}
