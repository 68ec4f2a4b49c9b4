package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/Townsmeet/imentor-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type bookingApplicationService interface {
	Create(ctx context.Context, menteeID int64, input services.CreateBookingInput) (*models.BookingDetail, error)
	RetryPaymentIntent(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Confirm(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Cancel(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Complete(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Get(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	List(ctx context.Context, actorID int64, role string, filter repository.BookingListFilter) ([]models.Booking, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	MentorID        int64   `json:"mentor_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	ScheduledAt     string  `json:"scheduled_at"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	if actorRole(c) != "mentee" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	menteeID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	if req.DurationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	detail, err := h.service.Create(c.Context(), menteeID, services.CreateBookingInput{
		MentorID:        req.MentorID,
		Title:           title,
		Description:     req.Description,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		// The booking survives gateway outages; hand it back so the client
		// can retry payment without rebooking.
		if errors.Is(err, services.ErrUpstream) && detail != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   "Payment service unavailable, retry payment for this booking",
				"booking": detail,
			})
		}
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": detail})
}

func (h *BookingHandler) List(c *fiber.Ctx) error {
	role := actorRole(c)
	if role != "mentee" && role != "mentor" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	bookings, err := h.service.List(c.Context(), actorID, role, repository.BookingListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) Get(c *fiber.Ctx) error {
	return h.act(c, h.service.Get)
}

func (h *BookingHandler) Confirm(c *fiber.Ctx) error {
	return h.act(c, h.service.Confirm)
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	return h.act(c, h.service.Cancel)
}

func (h *BookingHandler) Complete(c *fiber.Ctx) error {
	return h.act(c, h.service.Complete)
}

func (h *BookingHandler) RetryPaymentIntent(c *fiber.Ctx) error {
	return h.act(c, h.service.RetryPaymentIntent)
}

// act is the shared skeleton for the id-keyed lifecycle endpoints: they only
// differ in which service call they forward to.
func (h *BookingHandler) act(
	c *fiber.Ctx,
	call func(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error),
) error {
	role := actorRole(c)
	if role != "mentee" && role != "mentor" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	detail, err := call(c.Context(), actorID, role, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": detail})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrSlotClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyConfirmed),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrPaymentNotVerified):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUpstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment service unavailable"})
	case errors.Is(err, services.ErrMentorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
