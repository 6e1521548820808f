package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tradesystem/ipo-simulation/services"
	"github.com/tradesystem/ipo-simulation/shared"
)

type InvestorHandler struct {
	InvestorService *services.InvestorService
}

func NewInvestorHandler(investorService *services.InvestorService) *InvestorHandler {
	return &InvestorHandler{InvestorService: investorService}
}

type loginRequest struct {
	InvestorID string `json:"investor_id"`
}

type registerRequest struct {
	InvestorID     string          `json:"investor_id"`
	DisplayName    string          `json:"display_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Login returns the existing investor or creates one with the default balance.
func (h *InvestorHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.InvestorID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "investor_id is required",
		})
	}

	investor := h.InvestorService.LoginOrCreate(req.InvestorID)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"investor_id":  investor.InvestorID,
			"display_name": investor.DisplayName,
			"balance":      investor.Balance(),
		},
	})
}

// Register creates an investor under an explicit ID.
func (h *InvestorHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil || req.InvestorID == "" || req.DisplayName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "investor_id and display_name are required",
		})
	}

	investor, err := h.InvestorService.Register(req.InvestorID, req.DisplayName, req.InitialBalance)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"investor_id":  investor.InvestorID,
			"display_name": investor.DisplayName,
			"balance":      investor.Balance(),
		},
	})
}

// GetInvestor returns the investor's profile and current balance.
func (h *InvestorHandler) GetInvestor(c *fiber.Ctx) error {
	investor, ok := h.InvestorService.FindInvestor(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Investor not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"investor_id":  investor.InvestorID,
			"display_name": investor.DisplayName,
			"balance":      investor.Balance(),
		},
	})
}

// GetRecords returns the investor's application history.
func (h *InvestorHandler) GetRecords(c *fiber.Ctx) error {
	investorID := c.Params("id")
	if _, ok := h.InvestorService.FindInvestor(investorID); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Investor not found",
		})
	}

	records := h.InvestorService.History(investorID)
	data := make([]fiber.Map, 0, len(records))
	for _, record := range records {
		data = append(data, recordJSON(record))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Deposit credits the investor's balance.
func (h *InvestorHandler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if err := h.InvestorService.Deposit(c.Params("id"), req.Amount); err != nil {
		status := fiber.StatusBadRequest
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
		"message": "Deposit successful",
	})
}
