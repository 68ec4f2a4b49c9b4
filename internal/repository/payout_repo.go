package repository

import (
	"context"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

const payoutColumns = `
	id, mentor_id, amount, currency, status, bank_account_ref, transfer_ref,
	period_start, period_end, processed_at, failure_reason, created_at`

type CreatePayoutInput struct {
	MentorID       int64
	Amount         float64
	Currency       string
	BankAccountRef string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

type PayoutRepository struct {
	db DBTX
}

func NewPayoutRepository(db DBTX) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var p models.Payout
	err := row.Scan(
		&p.ID,
		&p.MentorID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.BankAccountRef,
		&p.TransferRef,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.ProcessedAt,
		&p.FailureReason,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a payout already in processing: the row only exists once a
// batch has been locked in.
func (r *PayoutRepository) Create(ctx context.Context, input CreatePayoutInput) (*models.Payout, error) {
	query := `
		INSERT INTO payouts (mentor_id, amount, currency, status, bank_account_ref, period_start, period_end)
		VALUES ($1, $2, $3, 'processing', $4, $5, $6)
		RETURNING` + payoutColumns

	return scanPayout(r.db.QueryRow(
		ctx,
		query,
		input.MentorID,
		input.Amount,
		input.Currency,
		input.BankAccountRef,
		input.PeriodStart,
		input.PeriodEnd,
	))
}

// GetProcessingByMentor returns the mentor's in-flight payout, if any. At
// most one can exist at a time because payout runs serialize per mentor.
func (r *PayoutRepository) GetProcessingByMentor(ctx context.Context, mentorID int64) (*models.Payout, error) {
	query := `
		SELECT` + payoutColumns + `
		FROM payouts
		WHERE mentor_id = $1 AND status = 'processing'
		ORDER BY id DESC
		LIMIT 1`
	return scanPayout(r.db.QueryRow(ctx, query, mentorID))
}

func (r *PayoutRepository) MarkCompleted(ctx context.Context, payoutID int64, transferRef string) (*models.Payout, error) {
	query := `
		UPDATE payouts
		SET status = 'completed', transfer_ref = $2, processed_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING` + payoutColumns
	return scanPayout(r.db.QueryRow(ctx, query, payoutID, transferRef))
}

func (r *PayoutRepository) MarkFailed(ctx context.Context, payoutID int64, reason string) (*models.Payout, error) {
	query := `
		UPDATE payouts
		SET status = 'failed', failure_reason = $2, processed_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING` + payoutColumns
	return scanPayout(r.db.QueryRow(ctx, query, payoutID, reason))
}

func (r *PayoutRepository) ListByMentor(ctx context.Context, mentorID int64, limit, offset int) ([]models.Payout, error) {
	query := `
		SELECT` + payoutColumns + `
		FROM payouts
		WHERE mentor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, mentorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := make([]models.Payout, 0)
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, *payout)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *PayoutRepository) CountByMentor(ctx context.Context, mentorID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payouts WHERE mentor_id = $1`, mentorID).Scan(&total)
	return total, err
}

// ListCandidates returns mentors holding available, unassigned earnings,
// with their balance and bank-account readiness, for the admin payout view.
func (r *PayoutRepository) ListCandidates(ctx context.Context) ([]models.PayoutCandidate, error) {
	query := `
		SELECT
			e.mentor_id,
			SUM(e.net_amount),
			COUNT(*),
			COALESCE(BOOL_OR(b.status = 'verified'), FALSE)
		FROM earnings e
		LEFT JOIN bank_accounts b ON b.mentor_id = e.mentor_id
		WHERE e.status = 'available' AND e.payout_id IS NULL
		GROUP BY e.mentor_id
		ORDER BY SUM(e.net_amount) DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]models.PayoutCandidate, 0)
	for rows.Next() {
		var c models.PayoutCandidate
		if err := rows.Scan(&c.MentorID, &c.AvailableAmount, &c.EarningCount, &c.BankAccountReady); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}
