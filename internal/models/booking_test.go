package models

import (
	"testing"
	"time"
)

func TestBookingStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{BookingStatusPending, BookingStatusConfirmed},
		{BookingStatusPending, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusCompleted},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to BookingStatus }{
		{BookingStatusPending, BookingStatusCompleted},
		{BookingStatusConfirmed, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusPending},
		{BookingStatusCompleted, BookingStatusConfirmed},
		{BookingStatusCancelled, BookingStatusPending},
		{BookingStatusCancelled, BookingStatusConfirmed},
	}
	for _, tc := range forbidden {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be forbidden", tc.from, tc.to)
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	if BookingStatusPending.Terminal() || BookingStatusConfirmed.Terminal() {
		t.Fatalf("pending and confirmed must not be terminal")
	}
	if !BookingStatusCompleted.Terminal() || !BookingStatusCancelled.Terminal() {
		t.Fatalf("completed and cancelled must be terminal")
	}
}

func TestBookingEndsAt(t *testing.T) {
	booking := Booking{
		ScheduledAt:     time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
	}
	want := time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC)
	if !booking.EndsAt().Equal(want) {
		t.Fatalf("expected %v, got %v", want, booking.EndsAt())
	}
}
