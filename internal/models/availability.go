package models

import "time"

// AvailabilitySlot is a mentor-declared recurring weekly window of bookable
// time. Minutes are minute-of-day (0..1440); weekday follows time.Weekday
// numbering (0 = Sunday).
type AvailabilitySlot struct {
	ID          int64     `json:"id"`
	MentorID    int64     `json:"mentor_id"`
	Weekday     int       `json:"weekday"`
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

// MentorCalendar is the merged view used for calendar rendering.
type MentorCalendar struct {
	Slots    []AvailabilitySlot `json:"slots"`
	Upcoming []Booking          `json:"upcoming_bookings"`
}
