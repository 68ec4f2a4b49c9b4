package models

import "time"

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Payout is a batched transfer of available earnings to a mentor's bank
// destination. Amount always equals the sum of NetAmount over the earnings
// whose PayoutID points here.
type Payout struct {
	ID             int64        `json:"id"`
	MentorID       int64        `json:"mentor_id"`
	Amount         float64      `json:"amount"`
	Currency       string       `json:"currency"`
	Status         PayoutStatus `json:"status"`
	BankAccountRef string       `json:"bank_account_ref"`
	TransferRef    *string      `json:"transfer_ref"`
	PeriodStart    time.Time    `json:"period_start"`
	PeriodEnd      time.Time    `json:"period_end"`
	ProcessedAt    *time.Time   `json:"processed_at"`
	FailureReason  *string      `json:"failure_reason"`
	CreatedAt      time.Time    `json:"created_at"`
}

type BankAccountStatus string

const (
	BankAccountStatusPending  BankAccountStatus = "pending"
	BankAccountStatusVerified BankAccountStatus = "verified"
	BankAccountStatusFailed   BankAccountStatus = "failed"
)

// BankAccount is a mentor's payout destination. Only the last four digits of
// the account number are ever stored.
type BankAccount struct {
	ID             int64             `json:"id"`
	MentorID       int64             `json:"mentor_id"`
	HolderName     string            `json:"holder_name"`
	BankName       string            `json:"bank_name"`
	AccountLast4   string            `json:"account_last4"`
	DestinationRef string            `json:"-"`
	Status         BankAccountStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PayoutCandidate is one row of the admin view of mentors eligible for a
// payout run.
type PayoutCandidate struct {
	MentorID         int64   `json:"mentor_id"`
	AvailableAmount  float64 `json:"available_amount"`
	EarningCount     int     `json:"earning_count"`
	BankAccountReady bool    `json:"bank_account_ready"`
}
