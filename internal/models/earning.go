package models

import "time"

type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusAvailable EarningStatus = "available"
	EarningStatusPaid      EarningStatus = "paid"
)

// Earning is the ledger record of a mentor's net proceeds from one paid
// booking. GrossAmount, PlatformFee and NetAmount are fixed at creation time
// and never recomputed. PayoutID is written exactly once, when the earning
// becomes paid.
type Earning struct {
	ID          int64         `json:"id"`
	MentorID    int64         `json:"mentor_id"`
	BookingID   int64         `json:"booking_id"`
	GrossAmount float64       `json:"gross_amount"`
	PlatformFee float64       `json:"platform_fee"`
	NetAmount   float64       `json:"net_amount"`
	Status      EarningStatus `json:"status"`
	AvailableAt *time.Time    `json:"available_at"`
	PayoutID    *int64        `json:"payout_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type EarningsSummary struct {
	TotalEarned    float64 `json:"total_earned"`
	Available      float64 `json:"available"`
	Pending        float64 `json:"pending"`
	PaidOut        float64 `json:"paid_out"`
	ThisMonth      float64 `json:"this_month"`
	LastMonth      float64 `json:"last_month"`
	AvailableCount int     `json:"available_count"`
}
