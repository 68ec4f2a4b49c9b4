package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/payments"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	ReasonBelowMinimum       = "available balance below payout minimum"
	ReasonBankAccountMissing = "no bank account on file"
	ReasonBankAccountPending = "bank account not verified"
	ReasonNothingToPay       = "no available earnings"
)

type PayoutEligibility struct {
	Eligible     bool    `json:"eligible"`
	Reason       string  `json:"reason,omitempty"`
	Amount       float64 `json:"amount"`
	EarningCount int     `json:"earning_count"`
}

// PayoutService batches a mentor's available earnings into transfers.
// Exactly-once rests on three facts: candidates require payout_id IS NULL,
// MarkPaid is the only payout_id writer, and Process serializes per mentor
// behind a session advisory lock.
type PayoutService struct {
	db            *pgxpool.Pool
	earningRepo   *repository.EarningRepository
	payoutRepo    *repository.PayoutRepository
	bankRepo      *repository.BankAccountRepository
	gateway       payments.Gateway
	notifier      Notifier
	logger        *zap.Logger
	minimumPayout float64
	currency      string
}

func NewPayoutService(
	db *pgxpool.Pool,
	earningRepo *repository.EarningRepository,
	payoutRepo *repository.PayoutRepository,
	bankRepo *repository.BankAccountRepository,
	gateway payments.Gateway,
	notifier Notifier,
	logger *zap.Logger,
	minimumPayout float64,
	currency string,
) *PayoutService {
	return &PayoutService{
		db:            db,
		earningRepo:   earningRepo,
		payoutRepo:    payoutRepo,
		bankRepo:      bankRepo,
		gateway:       gateway,
		notifier:      notifier,
		logger:        logger,
		minimumPayout: minimumPayout,
		currency:      currency,
	}
}

// evaluateBatch decides eligibility for a candidate earning set. Ineligible
// is an expected outcome, not a failure.
func evaluateBatch(earnings []models.Earning, bank *models.BankAccount, minimum float64) PayoutEligibility {
	total := 0.0
	for _, earning := range earnings {
		total += earning.NetAmount
	}
	total = round2(total)

	eligibility := PayoutEligibility{Amount: total, EarningCount: len(earnings)}
	switch {
	case len(earnings) == 0:
		eligibility.Reason = ReasonNothingToPay
	case total < minimum:
		eligibility.Reason = ReasonBelowMinimum
	case bank == nil:
		eligibility.Reason = ReasonBankAccountMissing
	case bank.Status != models.BankAccountStatusVerified:
		eligibility.Reason = ReasonBankAccountPending
	default:
		eligibility.Eligible = true
	}
	return eligibility
}

// BuildBatch reports, without side effects, whether the mentor's available
// balance can be paid out right now.
func (s *PayoutService) BuildBatch(ctx context.Context, mentorID int64) (*PayoutEligibility, error) {
	earnings, err := s.earningRepo.ListAvailable(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	bank, err := s.bankRepo.GetByMentorID(ctx, mentorID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	eligibility := evaluateBatch(earnings, bank, s.minimumPayout)
	return &eligibility, nil
}

// Process runs one payout cycle for the mentor. A per-mentor advisory lock is
// held on a dedicated connection for the whole run, so two concurrent runs
// can never read the same candidate set; the transfer itself happens outside
// any transaction, with no row locks held.
func (s *PayoutService) Process(ctx context.Context, mentorID int64) (*models.Payout, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockKey(lockClassPayout, mentorID)); err != nil {
		return nil, err
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockKey(lockClassPayout, mentorID))
	}()

	payout, earnings, err := s.openBatch(ctx, conn, mentorID)
	if err != nil {
		return nil, err
	}

	// The idempotency key is derived from the payout row: if the process died
	// after a successful transfer, the resumed run re-sends under the same key
	// and the processor returns the original transfer instead of a second one.
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	transferRef, transferErr := s.gateway.Transfer(gctx, payout.BankAccountRef, payout.Amount, payout.Currency,
		"payout-"+formatID(payout.ID), map[string]string{
			"payout_id": formatID(payout.ID),
			"mentor_id": formatID(mentorID),
		})
	cancel()

	if transferErr != nil {
		s.logger.Warn("payout transfer failed",
			zap.Int64("payout_id", payout.ID),
			zap.Int64("mentor_id", mentorID),
			zap.Error(transferErr),
		)
		// Earnings stay available with payout_id unset; the next cycle
		// retries them.
		failed, err := repository.NewPayoutRepository(conn).MarkFailed(ctx, payout.ID, transferErr.Error())
		if err != nil {
			return nil, err
		}
		return failed, nil
	}

	completed, err := s.closeBatch(ctx, conn, payout.ID, transferRef, earnings)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, mentorID, "payout_sent",
		"Payout on its way",
		fmt.Sprintf("A payout of %.2f %s was sent to your bank account ending in %s.",
			completed.Amount, completed.Currency, bankLast4(ctx, s.bankRepo, mentorID)))

	return completed, nil
}

// openBatch locks the candidate earnings, validates eligibility, and records
// the payout row in processing before any money moves.
func (s *PayoutService) openBatch(
	ctx context.Context,
	conn *pgxpool.Conn,
	mentorID int64,
) (*models.Payout, []models.Earning, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txEarningRepo := repository.NewEarningRepository(tx)
	earnings, err := txEarningRepo.ListAvailableForUpdate(ctx, mentorID)
	if err != nil {
		return nil, nil, err
	}

	// A crashed run leaves its payout in processing with the transfer possibly
	// already sent. Resume that payout instead of opening a fresh one, so the
	// transfer retry reuses its idempotency key. Earnings newer than the stuck
	// payout's period wait for the next cycle.
	stuck, err := repository.NewPayoutRepository(tx).GetProcessingByMentor(ctx, mentorID)
	if err == nil {
		batch := make([]models.Earning, 0, len(earnings))
		for _, earning := range earnings {
			if !earning.CreatedAt.After(stuck.PeriodEnd) {
				batch = append(batch, earning)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, nil, err
		}
		return stuck, batch, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	bank, err := repository.NewBankAccountRepository(tx).GetByMentorID(ctx, mentorID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	eligibility := evaluateBatch(earnings, bank, s.minimumPayout)
	if !eligibility.Eligible {
		return nil, nil, fmt.Errorf("%w: %s", ErrPayoutNotEligible, eligibility.Reason)
	}

	periodStart := earnings[0].CreatedAt
	for _, earning := range earnings[1:] {
		if earning.CreatedAt.Before(periodStart) {
			periodStart = earning.CreatedAt
		}
	}

	payout, err := repository.NewPayoutRepository(tx).Create(ctx, repository.CreatePayoutInput{
		MentorID:       mentorID,
		Amount:         eligibility.Amount,
		Currency:       s.currency,
		BankAccountRef: bank.DestinationRef,
		PeriodStart:    periodStart,
		PeriodEnd:      time.Now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return payout, earnings, nil
}

// closeBatch marks the payout completed and every batched earning paid. The
// advisory lock is still held, so the candidate set cannot have moved.
func (s *PayoutService) closeBatch(
	ctx context.Context,
	conn *pgxpool.Conn,
	payoutID int64,
	transferRef string,
	earnings []models.Earning,
) (*models.Payout, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txEarningRepo := repository.NewEarningRepository(tx)
	for _, earning := range earnings {
		updated, err := txEarningRepo.MarkPaid(ctx, earning.ID, payoutID)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, fmt.Errorf("earning %d no longer payable for payout %d", earning.ID, payoutID)
		}
	}

	completed, err := repository.NewPayoutRepository(tx).MarkCompleted(ctx, payoutID, transferRef)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return completed, nil
}

// Candidates is the admin view of mentors holding payable balances.
func (s *PayoutService) Candidates(ctx context.Context) ([]models.PayoutCandidate, error) {
	return s.payoutRepo.ListCandidates(ctx)
}

func (s *PayoutService) History(
	ctx context.Context,
	mentorID int64,
	page, limit int,
) ([]models.Payout, int, error) {
	total, err := s.payoutRepo.CountByMentor(ctx, mentorID)
	if err != nil {
		return nil, 0, err
	}
	payouts, err := s.payoutRepo.ListByMentor(ctx, mentorID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

type SetupBankAccountInput struct {
	HolderName     string
	BankName       string
	AccountNumber  string
	DestinationRef string
}

// SetupBankAccount stores the mentor's payout destination. Only the last
// four digits of the account number survive; verification restarts at
// pending on every change.
func (s *PayoutService) SetupBankAccount(
	ctx context.Context,
	mentorID int64,
	input SetupBankAccountInput,
) (*models.BankAccount, error) {
	if input.HolderName == "" || input.BankName == "" || input.DestinationRef == "" {
		return nil, ErrInvalidInput
	}
	if len(input.AccountNumber) < 4 {
		return nil, ErrInvalidInput
	}
	return s.bankRepo.Upsert(ctx, repository.UpsertBankAccountInput{
		MentorID:       mentorID,
		HolderName:     input.HolderName,
		BankName:       input.BankName,
		AccountLast4:   input.AccountNumber[len(input.AccountNumber)-4:],
		DestinationRef: input.DestinationRef,
	})
}

func (s *PayoutService) GetBankAccount(ctx context.Context, mentorID int64) (*models.BankAccount, error) {
	return s.bankRepo.GetByMentorID(ctx, mentorID)
}

// SetBankAccountStatus is the admin verification hook.
func (s *PayoutService) SetBankAccountStatus(
	ctx context.Context,
	mentorID int64,
	status models.BankAccountStatus,
) (*models.BankAccount, error) {
	switch status {
	case models.BankAccountStatusPending, models.BankAccountStatusVerified, models.BankAccountStatusFailed:
	default:
		return nil, ErrInvalidInput
	}
	return s.bankRepo.SetStatus(ctx, mentorID, status)
}

func bankLast4(ctx context.Context, repo *repository.BankAccountRepository, mentorID int64) string {
	bank, err := repo.GetByMentorID(ctx, mentorID)
	if err != nil {
		return "????"
	}
	return bank.AccountLast4
}
