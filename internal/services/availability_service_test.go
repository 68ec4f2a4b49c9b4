package services

import (
	"errors"
	"testing"
	"time"
)

func TestValidateSlotInput(t *testing.T) {
	valid := SlotInput{Weekday: 1, StartMinute: 540, EndMinute: 720, IsAvailable: true}
	if err := validateSlotInput(valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	invalid := []SlotInput{
		{Weekday: -1, StartMinute: 0, EndMinute: 60},
		{Weekday: 7, StartMinute: 0, EndMinute: 60},
		{Weekday: 1, StartMinute: -10, EndMinute: 60},
		{Weekday: 1, StartMinute: 0, EndMinute: 1441},
		{Weekday: 1, StartMinute: 720, EndMinute: 540},
		{Weekday: 1, StartMinute: 540, EndMinute: 540},
	}
	for i, input := range invalid {
		if err := validateSlotInput(input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestSlotWindowProjectsOntoWeeklyGrid(t *testing.T) {
	// Tuesday 09:30 UTC, 45 minutes.
	at := time.Date(2026, 9, 15, 9, 30, 0, 0, time.UTC)

	weekday, start, end, ok := slotWindow(at, 45)
	if !ok {
		t.Fatalf("expected ok for a same-day window")
	}
	if weekday != int(time.Tuesday) {
		t.Fatalf("expected Tuesday (%d), got %d", int(time.Tuesday), weekday)
	}
	if start != 9*60+30 || end != 9*60+30+45 {
		t.Fatalf("unexpected window: start %d end %d", start, end)
	}
}

func TestSlotWindowRejectsMidnightCrossing(t *testing.T) {
	at := time.Date(2026, 9, 15, 23, 30, 0, 0, time.UTC)

	if _, _, _, ok := slotWindow(at, 45); ok {
		t.Fatalf("expected window crossing midnight to report not ok")
	}
}

func TestSlotWindowNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:00 local on the 16th is 21:00 UTC on the 15th.
	at := time.Date(2026, 9, 16, 2, 0, 0, 0, loc)

	weekday, start, _, ok := slotWindow(at, 60)
	if !ok {
		t.Fatalf("expected ok")
	}
	if weekday != int(time.Tuesday) {
		t.Fatalf("expected UTC weekday Tuesday, got %d", weekday)
	}
	if start != 21*60 {
		t.Fatalf("expected start 1260, got %d", start)
	}
}
