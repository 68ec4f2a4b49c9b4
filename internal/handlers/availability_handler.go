package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
)

type availabilityApplicationService interface {
	ListSlots(ctx context.Context, mentorID int64) ([]models.AvailabilitySlot, error)
	AddSlot(ctx context.Context, mentorID int64, input services.SlotInput) (*models.AvailabilitySlot, error)
	ReplaceSlots(ctx context.Context, mentorID int64, inputs []services.SlotInput) ([]models.AvailabilitySlot, error)
	ClearSlots(ctx context.Context, mentorID int64) error
	SetSlotAvailable(ctx context.Context, mentorID int64, slotID int64, isAvailable bool) error
	DeleteSlot(ctx context.Context, mentorID int64, slotID int64) error
	Calendar(ctx context.Context, mentorID int64) (*models.MentorCalendar, error)
}

type AvailabilityHandler struct {
	service availabilityApplicationService
}

func NewAvailabilityHandler(service *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) requireMentor(c *fiber.Ctx) (int64, error) {
	if actorRole(c) != "mentor" {
		return 0, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	mentorID, err := parseActorID(c)
	if err != nil {
		return 0, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	return mentorID, nil
}

func (h *AvailabilityHandler) ListSlots(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	slots, err := h.service.ListSlots(c.Context(), mentorID)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

func (h *AvailabilityHandler) AddSlot(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	var req services.SlotInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	slot, err := h.service.AddSlot(c.Context(), mentorID, req)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

func (h *AvailabilityHandler) ReplaceSlots(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	var req struct {
		Slots []services.SlotInput `json:"slots"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	slots, err := h.service.ReplaceSlots(c.Context(), mentorID, req.Slots)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

func (h *AvailabilityHandler) ClearSlots(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	if err := h.service.ClearSlots(c.Context(), mentorID); err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AvailabilityHandler) SetSlotAvailable(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	slotID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || slotID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	var req struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.service.SetSlotAvailable(c.Context(), mentorID, slotID, req.IsAvailable); err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AvailabilityHandler) DeleteSlot(c *fiber.Ctx) error {
	mentorID, err := h.requireMentor(c)
	if err != nil || mentorID == 0 {
		return err
	}

	slotID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || slotID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	if err := h.service.DeleteSlot(c.Context(), mentorID, slotID); err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Calendar is readable by any authenticated user: mentees need it to pick a
// bookable window.
func (h *AvailabilityHandler) Calendar(c *fiber.Ctx) error {
	mentorID, err := strconv.ParseInt(c.Params("mentorId"), 10, 64)
	if err != nil || mentorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
	}

	calendar, err := h.service.Calendar(c.Context(), mentorID)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"calendar": calendar})
}

func mapAvailabilityError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Slot not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process availability request"})
	}
}
