package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tradesystem/ipo-simulation/models"
	"github.com/tradesystem/ipo-simulation/services"
	"github.com/tradesystem/ipo-simulation/shared"
)

type IPOHandler struct {
	AdminService        *services.AdminService
	SubscriptionService *services.SubscriptionService
}

func NewIPOHandler(adminService *services.AdminService, subscriptionService *services.SubscriptionService) *IPOHandler {
	return &IPOHandler{
		AdminService:        adminService,
		SubscriptionService: subscriptionService,
	}
}

type applyRequest struct {
	InvestorID string `json:"investor_id"`
	Quantity   int    `json:"quantity"`
}

// GetIPOs returns all offerings in display order.
func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	stocks := h.AdminService.ListIPOsForDisplay(time.Now())
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stocksJSON(stocks, time.Now()),
	})
}

// GetOpenIPOs returns offerings still accepting applications.
func (h *IPOHandler) GetOpenIPOs(c *fiber.Ctx) error {
	now := time.Now()
	stocks := h.AdminService.ListOpenIPOs(now)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stocksJSON(stocks, now),
	})
}

// GetIPOByID returns a single offering.
func (h *IPOHandler) GetIPOByID(c *fiber.Ctx) error {
	stock, ok := h.AdminService.Ledger.FindStock(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "IPO not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stockJSON(stock, time.Now()),
	})
}

// Apply submits an application. Business rejections come back as 200 with
// success=false and the recorded failure; only caller errors map to 4xx.
func (h *IPOHandler) Apply(c *fiber.Ctx) error {
	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.SubscriptionService.Apply(req.InvestorID, c.Params("id"), req.Quantity)
	if err != nil {
		status := fiber.StatusBadRequest
		if shared.IsNotFound(err) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	resp := fiber.Map{
		"success": result.Success,
		"message": result.Message,
	}
	if result.Record != nil {
		resp["record"] = recordJSON(result.Record)
	}
	return c.JSON(resp)
}

func stocksJSON(stocks []*models.IPOStock, now time.Time) []fiber.Map {
	data := make([]fiber.Map, 0, len(stocks))
	for _, stock := range stocks {
		data = append(data, stockJSON(stock, now))
	}
	return data
}

func stockJSON(stock *models.IPOStock, now time.Time) fiber.Map {
	return fiber.Map{
		"stock_id":       stock.StockID,
		"stock_name":     stock.StockName,
		"stock_symbol":   stock.StockSymbol,
		"price":          stock.Price,
		"total_quantity": stock.TotalQuantity,
		"deadline":       stock.Deadline,
		"issuer_name":    stock.IssuerName,
		"draw_executed":  stock.IsDrawExecuted(),
		"open":           stock.IsOpen(now),
	}
}

func recordJSON(record *models.ApplicationRecord) fiber.Map {
	m := fiber.Map{
		"record_id":     record.RecordID,
		"investor_id":   record.InvestorID,
		"stock_id":      record.StockID,
		"quantity":      record.Quantity,
		"price_per_lot": record.PricePerLot,
		"apply_time":    record.ApplyTime,
		"status":        record.Status(),
	}
	if reason := record.FailureReason(); reason != "" {
		m["failure_reason"] = reason
	}
	return m
}
