package repository

import (
	"context"
	"errors"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

const earningColumns = `
	id, mentor_id, booking_id, gross_amount, platform_fee, net_amount,
	status, available_at, payout_id, created_at, updated_at`

type CreateEarningInput struct {
	MentorID    int64
	BookingID   int64
	GrossAmount float64
	PlatformFee float64
	NetAmount   float64
}

type EarningRepository struct {
	db DBTX
}

func NewEarningRepository(db DBTX) *EarningRepository {
	return &EarningRepository{db: db}
}

func scanEarning(row pgx.Row) (*models.Earning, error) {
	var e models.Earning
	err := row.Scan(
		&e.ID,
		&e.MentorID,
		&e.BookingID,
		&e.GrossAmount,
		&e.PlatformFee,
		&e.NetAmount,
		&e.Status,
		&e.AvailableAt,
		&e.PayoutID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EnsureForBooking inserts a pending earning for the booking unless one
// already exists. The unique constraint on booking_id makes this safe under
// concurrent delivery; the second return value reports whether a row was
// actually created.
func (r *EarningRepository) EnsureForBooking(ctx context.Context, input CreateEarningInput) (*models.Earning, bool, error) {
	query := `
		INSERT INTO earnings (mentor_id, booking_id, gross_amount, platform_fee, net_amount, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		ON CONFLICT (booking_id) DO NOTHING
		RETURNING` + earningColumns

	earning, err := scanEarning(r.db.QueryRow(
		ctx,
		query,
		input.MentorID,
		input.BookingID,
		input.GrossAmount,
		input.PlatformFee,
		input.NetAmount,
	))
	if err == nil {
		return earning, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.GetByBookingID(ctx, input.BookingID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *EarningRepository) GetByID(ctx context.Context, earningID int64) (*models.Earning, error) {
	query := `SELECT` + earningColumns + ` FROM earnings WHERE id = $1`
	return scanEarning(r.db.QueryRow(ctx, query, earningID))
}

func (r *EarningRepository) GetByBookingID(ctx context.Context, bookingID int64) (*models.Earning, error) {
	query := `SELECT` + earningColumns + ` FROM earnings WHERE booking_id = $1`
	return scanEarning(r.db.QueryRow(ctx, query, bookingID))
}

// MarkAvailableIfPending performs the pending -> available transition and
// reports whether a row changed.
func (r *EarningRepository) MarkAvailableIfPending(ctx context.Context, earningID int64) (bool, error) {
	query := `
		UPDATE earnings
		SET status = 'available', available_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, earningID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaid performs the available -> paid transition. payout_id is written
// here and nowhere else, and only onto rows where it is still NULL.
func (r *EarningRepository) MarkPaid(ctx context.Context, earningID int64, payoutID int64) (bool, error) {
	query := `
		UPDATE earnings
		SET status = 'paid', payout_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'available' AND payout_id IS NULL
	`
	tag, err := r.db.Exec(ctx, query, earningID, payoutID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteIfPending removes a not-yet-available earning, used when a paid but
// still pending booking is cancelled and refunded.
func (r *EarningRepository) DeleteIfPending(ctx context.Context, bookingID int64) (bool, error) {
	query := `DELETE FROM earnings WHERE booking_id = $1 AND status = 'pending'`
	tag, err := r.db.Exec(ctx, query, bookingID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListAvailableForUpdate locks and returns the payout candidate set: earnings
// that are available and not yet attached to any payout.
func (r *EarningRepository) ListAvailableForUpdate(ctx context.Context, mentorID int64) ([]models.Earning, error) {
	query := `
		SELECT` + earningColumns + `
		FROM earnings
		WHERE mentor_id = $1 AND status = 'available' AND payout_id IS NULL
		ORDER BY id ASC
		FOR UPDATE`

	return r.listEarnings(ctx, query, mentorID)
}

func (r *EarningRepository) ListAvailable(ctx context.Context, mentorID int64) ([]models.Earning, error) {
	query := `
		SELECT` + earningColumns + `
		FROM earnings
		WHERE mentor_id = $1 AND status = 'available' AND payout_id IS NULL
		ORDER BY id ASC`

	return r.listEarnings(ctx, query, mentorID)
}

func (r *EarningRepository) ListByMentor(ctx context.Context, mentorID int64, limit, offset int) ([]models.Earning, error) {
	query := `
		SELECT` + earningColumns + `
		FROM earnings
		WHERE mentor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return r.listEarnings(ctx, query, mentorID, limit, offset)
}

func (r *EarningRepository) CountByMentor(ctx context.Context, mentorID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM earnings WHERE mentor_id = $1`, mentorID).Scan(&total)
	return total, err
}

func (r *EarningRepository) listEarnings(ctx context.Context, query string, args ...any) ([]models.Earning, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	earnings := make([]models.Earning, 0)
	for rows.Next() {
		earning, err := scanEarning(rows)
		if err != nil {
			return nil, err
		}
		earnings = append(earnings, *earning)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return earnings, nil
}

// Summary aggregates a mentor's ledger for the earnings dashboard.
func (r *EarningRepository) Summary(ctx context.Context, mentorID int64) (*models.EarningsSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(net_amount), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'available' AND payout_id IS NULL), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE created_at >= date_trunc('month', NOW())), 0),
			COALESCE(SUM(net_amount) FILTER (
				WHERE created_at >= date_trunc('month', NOW()) - INTERVAL '1 month'
				  AND created_at < date_trunc('month', NOW())
			), 0),
			COUNT(*) FILTER (WHERE status = 'available' AND payout_id IS NULL)
		FROM earnings
		WHERE mentor_id = $1
	`

	var summary models.EarningsSummary
	err := r.db.QueryRow(ctx, query, mentorID).Scan(
		&summary.TotalEarned,
		&summary.Available,
		&summary.Pending,
		&summary.PaidOut,
		&summary.ThisMonth,
		&summary.LastMonth,
		&summary.AvailableCount,
	)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
