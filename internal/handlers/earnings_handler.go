package handlers

import (
	"errors"

	"github.com/Townsmeet/imentor-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type EarningsHandler struct {
	earnings *services.EarningsService
}

func NewEarningsHandler(earnings *services.EarningsService) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

func (h *EarningsHandler) requireMentor(c *fiber.Ctx) (int64, error) {
	if actorRole(c) != "mentor" {
		return 0, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	mentorID, err := parseActorID(c)
	if err != nil {
		return 0, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	return mentorID, nil
}

func (h *EarningsHandler) Summary(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	summary, err := h.earnings.Summary(c.Context(), mentorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load earnings summary"})
	}

	return c.JSON(fiber.Map{
		"summary":  summary,
		"fee_rate": h.earnings.FeeRate(),
	})
}

func (h *EarningsHandler) History(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	page, limit := parsePagination(c)
	earnings, total, err := h.earnings.History(c.Context(), mentorID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load earnings history"})
	}

	return c.JSON(fiber.Map{
		"earnings":   earnings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

type PayoutHandler struct {
	payouts *services.PayoutService
}

func NewPayoutHandler(payouts *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

func (h *PayoutHandler) requireMentor(c *fiber.Ctx) (int64, error) {
	if actorRole(c) != "mentor" {
		return 0, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	mentorID, err := parseActorID(c)
	if err != nil {
		return 0, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	return mentorID, nil
}

// Eligibility is the mentor-facing preview of the next payout run.
func (h *PayoutHandler) Eligibility(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	eligibility, err := h.payouts.BuildBatch(c.Context(), mentorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to evaluate payout eligibility"})
	}
	return c.JSON(fiber.Map{"eligibility": eligibility})
}

func (h *PayoutHandler) History(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	page, limit := parsePagination(c)
	payouts, total, err := h.payouts.History(c.Context(), mentorID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payout history"})
	}

	return c.JSON(fiber.Map{
		"payouts":    payouts,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

type setupBankAccountRequest struct {
	HolderName     string `json:"holder_name"`
	BankName       string `json:"bank_name"`
	AccountNumber  string `json:"account_number"`
	DestinationRef string `json:"destination_ref"`
}

func (h *PayoutHandler) SetupBankAccount(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	var req setupBankAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	bank, err := h.payouts.SetupBankAccount(c.Context(), mentorID, services.SetupBankAccountInput{
		HolderName:     req.HolderName,
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		DestinationRef: req.DestinationRef,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "holder_name, bank_name, destination_ref and a full account_number are required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save bank account"})
	}
	return c.JSON(fiber.Map{"bank_account": bank})
}

func (h *PayoutHandler) GetBankAccount(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	bank, err := h.payouts.GetBankAccount(c.Context(), mentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No bank account on file"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load bank account"})
	}
	return c.JSON(fiber.Map{"bank_account": bank})
}
