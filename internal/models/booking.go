package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// CanTransitionTo reports whether the booking state machine allows moving to
// next. Transitions are monotonic: completed and cancelled are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted
	default:
		return false
	}
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Booking struct {
	ID               int64         `json:"id"`
	MentorID         int64         `json:"mentor_id"`
	MenteeID         int64         `json:"mentee_id"`
	Title            string        `json:"title"`
	Description      *string       `json:"description"`
	ScheduledAt      time.Time     `json:"scheduled_at"`
	DurationMinutes  int           `json:"duration_minutes"`
	Status           BookingStatus `json:"status"`
	Price            float64       `json:"price"`
	PaymentIntentRef *string       `json:"payment_intent_ref"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	MeetingLink      *string       `json:"meeting_link"`
	ConfirmedAt      *time.Time    `json:"confirmed_at"`
	CompletedAt      *time.Time    `json:"completed_at"`
	CancelledAt      *time.Time    `json:"cancelled_at"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// EndsAt is the exclusive end of the booked window.
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// BookingDetail is the API shape for a booking plus client-side payment
// initiation data. ClientSecret is only present right after intent creation.
type BookingDetail struct {
	Booking
	PaymentClientSecret *string `json:"payment_client_secret,omitempty"`
}
