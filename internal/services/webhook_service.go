package services

import (
	"context"
	"errors"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/payments"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PaymentEventService ingests processor-delivered payment outcome events.
// Delivery is at-least-once and possibly out of order, so every handler here
// is idempotent; events for intents this system never tracked are logged and
// dropped, never surfaced.
type PaymentEventService struct {
	db          *pgxpool.Pool
	bookingRepo *repository.BookingRepository
	earnings    *EarningsService
	gateway     payments.Gateway
	notifier    Notifier
	logger      *zap.Logger
}

func NewPaymentEventService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	earnings *EarningsService,
	gateway payments.Gateway,
	notifier Notifier,
	logger *zap.Logger,
) *PaymentEventService {
	return &PaymentEventService{
		db:          db,
		bookingRepo: bookingRepo,
		earnings:    earnings,
		gateway:     gateway,
		notifier:    notifier,
		logger:      logger,
	}
}

// HandleEvent dispatches a signature-verified event. Unhandled event types
// are acknowledged without action.
func (s *PaymentEventService) HandleEvent(ctx context.Context, event *payments.WebhookEvent) error {
	switch event.Type {
	case payments.EventIntentSucceeded:
		return s.handleIntentSucceeded(ctx, event.IntentRef)
	case payments.EventIntentFailed:
		return s.handleIntentFailed(ctx, event.IntentRef)
	default:
		return nil
	}
}

func (s *PaymentEventService) handleIntentSucceeded(ctx context.Context, intentRef string) error {
	booking, err := s.bookingRepo.GetByIntentRef(ctx, intentRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("payment succeeded for unknown intent, dropping",
				zap.String("intent_ref", intentRef))
			return nil
		}
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Re-read under the transaction: a cancellation (and its refund) may have
	// landed between delivery attempts.
	txBookingRepo := repository.NewBookingRepository(tx)
	current, err := txBookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		return err
	}

	// A success for a cancelled booking mints no earning. If the charge was
	// captured after cancellation it gets sent back.
	if current.Status == models.BookingStatusCancelled {
		captured, err := txBookingRepo.SetPaymentStatusIfCurrent(
			ctx, current.ID, models.PaymentStatusPending, models.PaymentStatusSucceeded,
		)
		if err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		if captured || current.PaymentStatus == models.PaymentStatusSucceeded {
			s.refundCancelledCharge(ctx, current, intentRef)
		} else {
			s.logger.Info("payment success for cancelled booking, dropping",
				zap.Int64("booking_id", current.ID),
				zap.String("intent_ref", intentRef))
		}
		return nil
	}

	if _, err := txBookingRepo.SetPaymentStatusIfCurrent(
		ctx, current.ID, models.PaymentStatusPending, models.PaymentStatusSucceeded,
	); err != nil {
		return err
	}
	// Retried failure events may have marked the payment failed before the
	// success arrived; the success outcome wins.
	if _, err := txBookingRepo.SetPaymentStatusIfCurrent(
		ctx, current.ID, models.PaymentStatusFailed, models.PaymentStatusSucceeded,
	); err != nil {
		return err
	}

	_, created, err := s.earnings.EnsureEarningTx(ctx, tx, current)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if created {
		s.notifier.Notify(ctx, current.MenteeID, "payment_received",
			"Payment received", "Your payment for "+current.Title+" went through. You can now confirm the session.")
		s.notifier.Notify(ctx, current.MentorID, "payment_received",
			"Payment received", "The mentee paid for "+current.Title+".")
	}
	return nil
}

// refundCancelledCharge returns money captured for a booking that was already
// cancelled. Best effort: a failed refund leaves payment_status at succeeded
// so a redelivered event retries it.
func (s *PaymentEventService) refundCancelledCharge(ctx context.Context, booking *models.Booking, intentRef string) {
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	if err := s.gateway.Refund(gctx, intentRef); err != nil {
		s.logger.Error("refund charge on cancelled booking",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
		return
	}
	if _, err := s.bookingRepo.SetPaymentStatusIfCurrent(
		ctx, booking.ID, models.PaymentStatusSucceeded, models.PaymentStatusRefunded,
	); err != nil {
		s.logger.Error("record refund", zap.Int64("booking_id", booking.ID), zap.Error(err))
	}
}

func (s *PaymentEventService) handleIntentFailed(ctx context.Context, intentRef string) error {
	booking, err := s.bookingRepo.GetByIntentRef(ctx, intentRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("payment failed for unknown intent, dropping",
				zap.String("intent_ref", intentRef))
			return nil
		}
		return err
	}

	// Nothing to retry on a cancelled or completed booking.
	if booking.Status.Terminal() {
		s.logger.Info("payment failure for terminal booking, dropping",
			zap.Int64("booking_id", booking.ID),
			zap.String("intent_ref", intentRef))
		return nil
	}

	// The booking stays pending so the mentee can retry payment.
	if _, err := s.bookingRepo.SetPaymentStatusIfCurrent(
		ctx, booking.ID, models.PaymentStatusPending, models.PaymentStatusFailed,
	); err != nil {
		return err
	}

	s.notifier.Notify(ctx, booking.MenteeID, "payment_failed",
		"Payment failed", "Your payment for "+booking.Title+" did not go through. Please try again.")
	return nil
}
