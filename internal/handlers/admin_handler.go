package handlers

import (
	"errors"
	"strconv"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// AdminHandler backs the operator endpoints: payout runs and bank account
// verification.
type AdminHandler struct {
	payouts *services.PayoutService
}

func NewAdminHandler(payouts *services.PayoutService) *AdminHandler {
	return &AdminHandler{payouts: payouts}
}

func (h *AdminHandler) requireAdmin(c *fiber.Ctx) error {
	if actorRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return nil
}

func (h *AdminHandler) PayoutCandidates(c *fiber.Ctx) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	candidates, err := h.payouts.Candidates(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payout candidates"})
	}
	return c.JSON(fiber.Map{"candidates": candidates})
}

func (h *AdminHandler) ProcessPayout(c *fiber.Ctx) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	mentorID, err := strconv.ParseInt(c.Params("mentorId"), 10, 64)
	if err != nil || mentorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
	}

	payout, err := h.payouts.Process(c.Context(), mentorID)
	if err != nil {
		if errors.Is(err, services.ErrPayoutNotEligible) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout"})
	}

	// A failed transfer still yields a payout row; surface its status as-is.
	return c.JSON(fiber.Map{"payout": payout})
}

type verifyBankAccountRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) VerifyBankAccount(c *fiber.Ctx) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	mentorID, err := strconv.ParseInt(c.Params("mentorId"), 10, 64)
	if err != nil || mentorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
	}

	var req verifyBankAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	bank, err := h.payouts.SetBankAccountStatus(c.Context(), mentorID, models.BankAccountStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be pending, verified or failed"})
		case errors.Is(err, pgx.ErrNoRows):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No bank account on file"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update bank account"})
		}
	}
	return c.JSON(fiber.Map{"bank_account": bank})
}
