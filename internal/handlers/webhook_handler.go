package handlers

import (
	"context"

	"github.com/Townsmeet/imentor-sub000/internal/payments"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type paymentEventService interface {
	HandleEvent(ctx context.Context, event *payments.WebhookEvent) error
}

// WebhookHandler terminates the payment processor's webhook endpoint. It is
// unauthenticated; the signature check is the only trust boundary.
type WebhookHandler struct {
	verifier payments.Verifier
	events   paymentEventService
	logger   *zap.Logger
}

func NewWebhookHandler(verifier payments.Verifier, events paymentEventService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, events: events, logger: logger}
}

func (h *WebhookHandler) HandleStripeEvent(c *fiber.Ctx) error {
	event, err := h.verifier.Verify(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	if err := h.events.HandleEvent(c.Context(), event); err != nil {
		h.logger.Error("webhook event processing failed",
			zap.String("type", event.Type),
			zap.Error(err),
		)
		// Non-2xx makes the processor redeliver; handlers are idempotent.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Event processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}
