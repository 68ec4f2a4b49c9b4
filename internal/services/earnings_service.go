package services

import (
	"context"
	"errors"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EarningsService owns the per-mentor ledger of earnings derived from paid
// bookings. The fee rate is injected so tests can vary it; the split is
// frozen into each earning row at creation time.
type EarningsService struct {
	db          *pgxpool.Pool
	earningRepo *repository.EarningRepository
	feeRate     float64
}

func NewEarningsService(
	db *pgxpool.Pool,
	earningRepo *repository.EarningRepository,
	feeRate float64,
) *EarningsService {
	return &EarningsService{db: db, earningRepo: earningRepo, feeRate: feeRate}
}

// EnsureEarningTx is the single idempotent earning-creation path, shared by
// webhook ingestion and booking completion. It runs on the caller's
// transaction; the unique constraint on booking_id collapses concurrent
// callers onto one row.
func (s *EarningsService) EnsureEarningTx(
	ctx context.Context,
	q repository.DBTX,
	booking *models.Booking,
) (*models.Earning, bool, error) {
	fee, net := computeFeeSplit(booking.Price, s.feeRate)
	return repository.NewEarningRepository(q).EnsureForBooking(ctx, repository.CreateEarningInput{
		MentorID:    booking.MentorID,
		BookingID:   booking.ID,
		GrossAmount: booking.Price,
		PlatformFee: fee,
		NetAmount:   net,
	})
}

// SettleBookingTx makes sure the booking's earning exists and is available,
// regardless of whether the payment webhook has been processed yet.
func (s *EarningsService) SettleBookingTx(
	ctx context.Context,
	q repository.DBTX,
	booking *models.Booking,
) (*models.Earning, error) {
	earning, _, err := s.EnsureEarningTx(ctx, q, booking)
	if err != nil {
		return nil, err
	}
	if _, err := repository.NewEarningRepository(q).MarkAvailableIfPending(ctx, earning.ID); err != nil {
		return nil, err
	}
	return repository.NewEarningRepository(q).GetByID(ctx, earning.ID)
}

// MarkAvailable advances pending -> available. Calling it on an earning that
// is already available is a no-op; a paid earning can never move back.
func (s *EarningsService) MarkAvailable(ctx context.Context, earningID int64) error {
	updated, err := s.earningRepo.MarkAvailableIfPending(ctx, earningID)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	earning, err := s.earningRepo.GetByID(ctx, earningID)
	if err != nil {
		return err
	}
	if earning.Status == models.EarningStatusAvailable {
		return nil
	}
	return ErrInvalidState
}

// MarkPaid advances available -> paid and writes payout_id, exactly once.
func (s *EarningsService) MarkPaid(ctx context.Context, earningID int64, payoutID int64) error {
	updated, err := s.earningRepo.MarkPaid(ctx, earningID, payoutID)
	if err != nil {
		return err
	}
	if !updated {
		if _, err := s.earningRepo.GetByID(ctx, earningID); errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return ErrInvalidState
	}
	return nil
}

func (s *EarningsService) AvailableEarningsFor(ctx context.Context, mentorID int64) ([]models.Earning, error) {
	return s.earningRepo.ListAvailable(ctx, mentorID)
}

func (s *EarningsService) Summary(ctx context.Context, mentorID int64) (*models.EarningsSummary, error) {
	return s.earningRepo.Summary(ctx, mentorID)
}

func (s *EarningsService) History(
	ctx context.Context,
	mentorID int64,
	page, limit int,
) ([]models.Earning, int, error) {
	total, err := s.earningRepo.CountByMentor(ctx, mentorID)
	if err != nil {
		return nil, 0, err
	}
	earnings, err := s.earningRepo.ListByMentor(ctx, mentorID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return earnings, total, nil
}

// FeeRate exposes the configured platform fee rate, for API responses.
func (s *EarningsService) FeeRate() float64 {
	return s.feeRate
}
