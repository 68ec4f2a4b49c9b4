package repository

import (
	"context"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

const bankAccountColumns = `
	id, mentor_id, holder_name, bank_name, account_last4, destination_ref,
	status, created_at, updated_at`

type UpsertBankAccountInput struct {
	MentorID       int64
	HolderName     string
	BankName       string
	AccountLast4   string
	DestinationRef string
}

type BankAccountRepository struct {
	db DBTX
}

func NewBankAccountRepository(db DBTX) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func scanBankAccount(row pgx.Row) (*models.BankAccount, error) {
	var b models.BankAccount
	err := row.Scan(
		&b.ID,
		&b.MentorID,
		&b.HolderName,
		&b.BankName,
		&b.AccountLast4,
		&b.DestinationRef,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Upsert stores the mentor's single payout destination. Replacing the
// destination resets verification to pending.
func (r *BankAccountRepository) Upsert(ctx context.Context, input UpsertBankAccountInput) (*models.BankAccount, error) {
	query := `
		INSERT INTO bank_accounts (mentor_id, holder_name, bank_name, account_last4, destination_ref, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		ON CONFLICT (mentor_id) DO UPDATE
		SET holder_name = EXCLUDED.holder_name,
		    bank_name = EXCLUDED.bank_name,
		    account_last4 = EXCLUDED.account_last4,
		    destination_ref = EXCLUDED.destination_ref,
		    status = 'pending',
		    updated_at = NOW()
		RETURNING` + bankAccountColumns

	return scanBankAccount(r.db.QueryRow(
		ctx,
		query,
		input.MentorID,
		input.HolderName,
		input.BankName,
		input.AccountLast4,
		input.DestinationRef,
	))
}

func (r *BankAccountRepository) GetByMentorID(ctx context.Context, mentorID int64) (*models.BankAccount, error) {
	query := `SELECT` + bankAccountColumns + ` FROM bank_accounts WHERE mentor_id = $1`
	return scanBankAccount(r.db.QueryRow(ctx, query, mentorID))
}

func (r *BankAccountRepository) SetStatus(
	ctx context.Context,
	mentorID int64,
	status models.BankAccountStatus,
) (*models.BankAccount, error) {
	query := `
		UPDATE bank_accounts
		SET status = $2, updated_at = NOW()
		WHERE mentor_id = $1
		RETURNING` + bankAccountColumns
	return scanBankAccount(r.db.QueryRow(ctx, query, mentorID, status))
}
