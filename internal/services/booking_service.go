package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/payments"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Advisory lock classes: booking creation and payout runs key their locks on
// the mentor id in separate classes so they never contend with each other.
const (
	lockClassBooking int64 = 1
	lockClassPayout  int64 = 2
)

// lockKey folds a lock class and a mentor id into the single-bigint advisory
// lock form. Ids keep their low 32 bits, so no id is ever too wide for the
// lock; a collision only widens serialization.
func lockKey(class, id int64) int64 {
	return class<<32 | (id & 0xFFFFFFFF)
}

const (
	gatewayTimeout     = 10 * time.Second
	maxBookingDuration = 8 * 60
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type mentorProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.MentorProfile, error)
}

type CreateBookingInput struct {
	MentorID        int64
	Title           string
	Description     *string
	ScheduledAt     time.Time
	DurationMinutes int
}

// BookingService is the state machine governing a booking's life from
// request through cancellation or completion. All status writes go through
// conditional updates in the repository; this service decides legality and
// sequencing.
type BookingService struct {
	db          *pgxpool.Pool
	bookingRepo *repository.BookingRepository
	earningRepo *repository.EarningRepository
	userRepo    userReader
	profileRepo mentorProfileReader
	earnings    *EarningsService
	gateway     payments.Gateway
	meetings    MeetingLinkProvider
	notifier    Notifier
	logger      *zap.Logger
	currency    string
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	earningRepo *repository.EarningRepository,
	userRepo userReader,
	profileRepo mentorProfileReader,
	earnings *EarningsService,
	gateway payments.Gateway,
	meetings MeetingLinkProvider,
	notifier Notifier,
	logger *zap.Logger,
	currency string,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		earningRepo: earningRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		earnings:    earnings,
		gateway:     gateway,
		meetings:    meetings,
		notifier:    notifier,
		logger:      logger,
		currency:    currency,
	}
}

// Create validates the request, reserves the window under a per-mentor
// advisory lock, and persists a pending booking. The payment intent is
// requested only after the transaction commits: if the gateway is down the
// booking survives in pending and the caller gets ErrUpstream alongside the
// persisted booking so payment can be retried.
func (s *BookingService) Create(
	ctx context.Context,
	menteeID int64,
	input CreateBookingInput,
) (*models.BookingDetail, error) {
	if input.MentorID <= 0 || input.DurationMinutes <= 0 || input.DurationMinutes > maxBookingDuration {
		return nil, ErrInvalidInput
	}
	if input.Title == "" {
		return nil, ErrInvalidInput
	}
	if menteeID == input.MentorID {
		return nil, ErrInvalidInput
	}
	if !input.ScheduledAt.After(time.Now()) {
		return nil, ErrInvalidInput
	}

	mentor, err := s.userRepo.GetByID(ctx, input.MentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}
	if mentor.Role != "mentor" {
		return nil, ErrInvalidInput
	}

	profile, err := s.profileRepo.GetByUserID(ctx, input.MentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}
	if !profile.OnboardingComplete || profile.HourlyRate == nil || *profile.HourlyRate <= 0 {
		return nil, ErrInvalidInput
	}

	price := ComputeSessionPrice(*profile.HourlyRate, input.DurationMinutes)
	scheduledAt := input.ScheduledAt.UTC()

	weekday, startMinute, endMinute, ok := slotWindow(scheduledAt, input.DurationMinutes)
	if !ok {
		return nil, ErrSlotClosed
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Serializes competing creates for the same mentor so that the conflict
	// check and the insert act as one atomic unit.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(lockClassBooking, input.MentorID)); err != nil {
		return nil, err
	}

	txBookingRepo := repository.NewBookingRepository(tx)
	txSlotRepo := repository.NewAvailabilityRepository(tx)

	open, err := txSlotRepo.IsSlotOpen(ctx, input.MentorID, weekday, startMinute, endMinute)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrSlotClosed
	}

	hasConflict, err := txBookingRepo.HasConflict(ctx, input.MentorID, scheduledAt, input.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateBookingInput{
		MentorID:        input.MentorID,
		MenteeID:        menteeID,
		Title:           input.Title,
		Description:     input.Description,
		ScheduledAt:     scheduledAt,
		DurationMinutes: input.DurationMinutes,
		Price:           price,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, booking.MentorID, "booking_requested",
		"New session request",
		booking.Title+" — awaiting payment from the mentee")

	detail := &models.BookingDetail{Booking: *booking}
	intent, err := s.requestIntent(ctx, booking)
	if err != nil {
		s.logger.Warn("create payment intent",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
		return detail, ErrUpstream
	}
	detail.PaymentIntentRef = &intent.Ref
	detail.PaymentClientSecret = &intent.ClientSecret
	return detail, nil
}

// RetryPaymentIntent requests a fresh intent for a pending booking whose
// original intent creation failed or expired.
func (s *BookingService) RetryPaymentIntent(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != "mentee" || booking.MenteeID != actorID {
		return nil, ErrForbidden
	}
	if booking.Status != models.BookingStatusPending {
		return nil, bookingStateError(booking.Status)
	}
	if booking.PaymentStatus == models.PaymentStatusSucceeded {
		return nil, ErrAlreadyConfirmed
	}

	detail := &models.BookingDetail{Booking: *booking}
	intent, err := s.requestIntent(ctx, booking)
	if err != nil {
		return detail, ErrUpstream
	}
	detail.PaymentIntentRef = &intent.Ref
	detail.PaymentClientSecret = &intent.ClientSecret
	return detail, nil
}

func (s *BookingService) requestIntent(ctx context.Context, booking *models.Booking) (*payments.Intent, error) {
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := s.gateway.CreateIntent(gctx, booking.Price, s.currency, map[string]string{
		"booking_id": formatID(booking.ID),
		"mentor_id":  formatID(booking.MentorID),
		"mentee_id":  formatID(booking.MenteeID),
	})
	if err != nil {
		return nil, err
	}
	if err := s.bookingRepo.SetPaymentIntentRef(ctx, booking.ID, intent.Ref); err != nil {
		return nil, err
	}
	return intent, nil
}

// Confirm moves a pending booking to confirmed after verifying the payment.
// Only the mentee who created the booking may confirm. When the success
// webhook already recorded the payment, the gateway round trip is skipped.
func (s *BookingService) Confirm(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != "mentee" || booking.MenteeID != actorID {
		return nil, ErrForbidden
	}
	if !booking.Status.CanTransitionTo(models.BookingStatusConfirmed) {
		return nil, bookingStateError(booking.Status)
	}

	if booking.PaymentStatus != models.PaymentStatusSucceeded {
		if booking.PaymentIntentRef == nil {
			return nil, ErrPaymentNotVerified
		}
		gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
		status, err := s.gateway.GetIntentStatus(gctx, *booking.PaymentIntentRef)
		cancel()
		if err != nil {
			if errors.Is(err, payments.ErrUnavailable) {
				return nil, ErrUpstream
			}
			return nil, err
		}
		if status != payments.IntentStatusSucceeded {
			return nil, ErrPaymentNotVerified
		}
	}

	meetingLink, err := s.meetings.Provision(ctx, booking)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.bookingRepo.Confirm(ctx, bookingID, meetingLink)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.currentStateError(ctx, bookingID)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, confirmed.MentorID, "booking_confirmed",
		"Session confirmed", confirmed.Title)
	s.notifier.Notify(ctx, confirmed.MenteeID, "booking_confirmed",
		"Session confirmed", confirmed.Title)

	return &models.BookingDetail{Booking: *confirmed}, nil
}

// Cancel moves a pending booking to cancelled. A confirmed booking can never
// be cancelled here: captured money stays captured, by policy. If the payment
// had already succeeded (webhook raced ahead of confirmation) the charge is
// refunded best-effort and the pending earning withdrawn.
func (s *BookingService) Cancel(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isBookingParty(role, actorID, booking) {
		return nil, ErrForbidden
	}
	if !booking.Status.CanTransitionTo(models.BookingStatusCancelled) {
		return nil, bookingStateError(booking.Status)
	}

	cancelled, err := s.bookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.currentStateError(ctx, bookingID)
		}
		return nil, err
	}

	if booking.PaymentStatus == models.PaymentStatusSucceeded && booking.PaymentIntentRef != nil {
		s.refundCancelledBooking(ctx, cancelled)
	}

	body := cancelled.Title + " was cancelled by the " + role
	s.notifier.Notify(ctx, cancelled.MentorID, "booking_cancelled", "Session cancelled", body)
	s.notifier.Notify(ctx, cancelled.MenteeID, "booking_cancelled", "Session cancelled", body)

	return &models.BookingDetail{Booking: *cancelled}, nil
}

func (s *BookingService) refundCancelledBooking(ctx context.Context, booking *models.Booking) {
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	if err := s.gateway.Refund(gctx, *booking.PaymentIntentRef); err != nil {
		s.logger.Error("refund cancelled booking",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
		return
	}
	if _, err := s.bookingRepo.SetPaymentStatusIfCurrent(
		ctx, booking.ID, models.PaymentStatusSucceeded, models.PaymentStatusRefunded,
	); err != nil {
		s.logger.Error("record refund", zap.Int64("booking_id", booking.ID), zap.Error(err))
		return
	}
	if _, err := s.earningRepo.DeleteIfPending(ctx, booking.ID); err != nil {
		s.logger.Error("withdraw pending earning", zap.Int64("booking_id", booking.ID), zap.Error(err))
	}
}

// Complete moves a confirmed booking to completed, bumps the mentor's session
// counter, and settles the earning (creating it defensively when the payment
// webhook has not arrived yet). Either participant may complete.
func (s *BookingService) Complete(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isBookingParty(role, actorID, booking) {
		return nil, ErrForbidden
	}
	if !booking.Status.CanTransitionTo(models.BookingStatusCompleted) {
		return nil, bookingStateError(booking.Status)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	completed, err := txBookingRepo.Complete(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	txMentorRepo := repository.NewMentorProfileRepository(tx)
	if err := txMentorRepo.IncrementTotalSessions(ctx, completed.MentorID); err != nil {
		return nil, err
	}

	if _, err := s.earnings.SettleBookingTx(ctx, tx, completed); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, completed.MentorID, "booking_completed",
		"Session completed", completed.Title)
	s.notifier.Notify(ctx, completed.MenteeID, "booking_completed",
		"Session completed", "How was your session? Leave your mentor a review.")

	return &models.BookingDetail{Booking: *completed}, nil
}

func (s *BookingService) Get(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isBookingParty(role, actorID, booking) {
		return nil, ErrForbidden
	}
	return &models.BookingDetail{Booking: *booking}, nil
}

func (s *BookingService) List(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.BookingListFilter,
) ([]models.Booking, error) {
	return s.bookingRepo.List(ctx, repository.BookingListFilter{
		ActorID:   actorID,
		Role:      role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
}

// currentStateError re-reads the booking after a lost conditional update and
// names the state that won the race.
func (s *BookingService) currentStateError(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	return bookingStateError(booking.Status)
}

func bookingStateError(status models.BookingStatus) error {
	switch status {
	case models.BookingStatusConfirmed:
		return ErrAlreadyConfirmed
	case models.BookingStatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrInvalidState
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func isBookingParty(role string, actorID int64, booking *models.Booking) bool {
	switch role {
	case "mentee":
		return booking.MenteeID == actorID
	case "mentor":
		return booking.MentorID == actorID
	default:
		return false
	}
}
