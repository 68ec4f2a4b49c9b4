package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `
	id, mentor_id, mentee_id, title, description, scheduled_at, duration_min,
	status, price, payment_intent_ref, payment_status, meeting_link,
	confirmed_at, completed_at, cancelled_at, created_at, updated_at`

type CreateBookingInput struct {
	MentorID        int64
	MenteeID        int64
	Title           string
	Description     *string
	ScheduledAt     time.Time
	DurationMinutes int
	Price           float64
}

type BookingListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.MentorID,
		&b.MenteeID,
		&b.Title,
		&b.Description,
		&b.ScheduledAt,
		&b.DurationMinutes,
		&b.Status,
		&b.Price,
		&b.PaymentIntentRef,
		&b.PaymentStatus,
		&b.MeetingLink,
		&b.ConfirmedAt,
		&b.CompletedAt,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (mentor_id, mentee_id, title, description, scheduled_at, duration_min, status, price, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, 'pending')
		RETURNING` + bookingColumns

	return scanBooking(r.db.QueryRow(
		ctx,
		query,
		input.MentorID,
		input.MenteeID,
		input.Title,
		input.Description,
		input.ScheduledAt,
		input.DurationMinutes,
		input.Price,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByIntentRef(ctx context.Context, intentRef string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE payment_intent_ref = $1`
	return scanBooking(r.db.QueryRow(ctx, query, intentRef))
}

func (r *BookingRepository) List(ctx context.Context, filter BookingListFilter) ([]models.Booking, error) {
	actorColumn := "mentee_id"
	if filter.Role == "mentor" {
		actorColumn = "mentor_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	query := fmt.Sprintf(
		`SELECT`+bookingColumns+` FROM bookings WHERE %s ORDER BY scheduled_at ASC, id ASC`,
		strings.Join(whereParts, " AND "),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// ListUpcomingForMentor returns non-cancelled bookings ending in the future,
// for the merged calendar view.
func (r *BookingRepository) ListUpcomingForMentor(ctx context.Context, mentorID int64) ([]models.Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE mentor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()
		ORDER BY scheduled_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, mentorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// HasConflict reports whether an existing pending or confirmed booking for
// the mentor overlaps the requested window. The comparison is a full interval
// overlap, not a same-start check.
func (r *BookingRepository) HasConflict(
	ctx context.Context,
	mentorID int64,
	scheduledAt time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE mentor_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, mentorID, scheduledAt, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

// Confirm atomically moves a pending booking to confirmed, recording the
// meeting link and the verified payment. pgx.ErrNoRows means the booking was
// no longer pending.
func (r *BookingRepository) Confirm(ctx context.Context, bookingID int64, meetingLink string) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed',
		    payment_status = 'succeeded',
		    meeting_link = $2,
		    confirmed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, meetingLink))
}

// Cancel atomically moves a pending booking to cancelled.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// Complete atomically moves a confirmed booking to completed.
func (r *BookingRepository) Complete(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
		RETURNING` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) SetPaymentIntentRef(ctx context.Context, bookingID int64, intentRef string) error {
	query := `
		UPDATE bookings
		SET payment_intent_ref = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, bookingID, intentRef)
	return err
}

// SetPaymentStatusIfCurrent performs the conditional payment-status
// transition and reports whether a row was updated.
func (r *BookingRepository) SetPaymentStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	current models.PaymentStatus,
	next models.PaymentStatus,
) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
	`
	tag, err := r.db.Exec(ctx, query, bookingID, current, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
