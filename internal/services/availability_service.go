package services

import (
	"context"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

const minutesPerDay = 24 * 60

type SlotInput struct {
	Weekday     int  `json:"weekday"`
	StartMinute int  `json:"start_minute"`
	EndMinute   int  `json:"end_minute"`
	IsAvailable bool `json:"is_available"`
}

// AvailabilityService owns a mentor's recurring weekly open slots and answers
// whether a concrete window is bookable. Slots for the same mentor and day
// may overlap each other; only booking-to-booking disjointness is enforced,
// and that lives in the booking service.
type AvailabilityService struct {
	db          *pgxpool.Pool
	slotRepo    *repository.AvailabilityRepository
	bookingRepo *repository.BookingRepository
}

func NewAvailabilityService(
	db *pgxpool.Pool,
	slotRepo *repository.AvailabilityRepository,
	bookingRepo *repository.BookingRepository,
) *AvailabilityService {
	return &AvailabilityService{db: db, slotRepo: slotRepo, bookingRepo: bookingRepo}
}

func validateSlotInput(input SlotInput) error {
	if input.Weekday < 0 || input.Weekday > 6 {
		return ErrInvalidInput
	}
	if input.StartMinute < 0 || input.EndMinute > minutesPerDay {
		return ErrInvalidInput
	}
	if input.StartMinute >= input.EndMinute {
		return ErrInvalidInput
	}
	return nil
}

func (s *AvailabilityService) ListSlots(ctx context.Context, mentorID int64) ([]models.AvailabilitySlot, error) {
	return s.slotRepo.ListByMentor(ctx, mentorID)
}

func (s *AvailabilityService) AddSlot(ctx context.Context, mentorID int64, input SlotInput) (*models.AvailabilitySlot, error) {
	if err := validateSlotInput(input); err != nil {
		return nil, err
	}
	return s.slotRepo.Create(ctx, repository.CreateSlotInput{
		MentorID:    mentorID,
		Weekday:     input.Weekday,
		StartMinute: input.StartMinute,
		EndMinute:   input.EndMinute,
		IsAvailable: input.IsAvailable,
	})
}

// ReplaceSlots swaps the mentor's whole weekly schedule in one transaction.
func (s *AvailabilityService) ReplaceSlots(
	ctx context.Context,
	mentorID int64,
	inputs []SlotInput,
) ([]models.AvailabilitySlot, error) {
	for _, input := range inputs {
		if err := validateSlotInput(input); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSlotRepo := repository.NewAvailabilityRepository(tx)
	if err := txSlotRepo.DeleteAllByMentor(ctx, mentorID); err != nil {
		return nil, err
	}

	slots := make([]models.AvailabilitySlot, 0, len(inputs))
	for _, input := range inputs {
		slot, err := txSlotRepo.Create(ctx, repository.CreateSlotInput{
			MentorID:    mentorID,
			Weekday:     input.Weekday,
			StartMinute: input.StartMinute,
			EndMinute:   input.EndMinute,
			IsAvailable: input.IsAvailable,
		})
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *AvailabilityService) ClearSlots(ctx context.Context, mentorID int64) error {
	return s.slotRepo.DeleteAllByMentor(ctx, mentorID)
}

func (s *AvailabilityService) SetSlotAvailable(
	ctx context.Context,
	mentorID int64,
	slotID int64,
	isAvailable bool,
) error {
	updated, err := s.slotRepo.SetAvailable(ctx, mentorID, slotID, isAvailable)
	if err != nil {
		return err
	}
	if !updated {
		return ErrForbidden
	}
	return nil
}

func (s *AvailabilityService) DeleteSlot(ctx context.Context, mentorID int64, slotID int64) error {
	deleted, err := s.slotRepo.Delete(ctx, mentorID, slotID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrForbidden
	}
	return nil
}

// IsSlotOpen reports whether the mentor declared an open weekly slot fully
// covering the requested absolute window.
func (s *AvailabilityService) IsSlotOpen(
	ctx context.Context,
	mentorID int64,
	scheduledAt time.Time,
	durationMinutes int,
) (bool, error) {
	weekday, startMinute, endMinute, ok := slotWindow(scheduledAt, durationMinutes)
	if !ok {
		return false, nil
	}
	return s.slotRepo.IsSlotOpen(ctx, mentorID, weekday, startMinute, endMinute)
}

// HasConflict reports whether any pending or confirmed booking overlaps the
// window.
func (s *AvailabilityService) HasConflict(
	ctx context.Context,
	mentorID int64,
	scheduledAt time.Time,
	durationMinutes int,
) (bool, error) {
	return s.bookingRepo.HasConflict(ctx, mentorID, scheduledAt.UTC(), durationMinutes)
}

// Calendar merges declared slots with upcoming non-cancelled bookings.
func (s *AvailabilityService) Calendar(ctx context.Context, mentorID int64) (*models.MentorCalendar, error) {
	slots, err := s.slotRepo.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.bookingRepo.ListUpcomingForMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return &models.MentorCalendar{Slots: slots, Upcoming: upcoming}, nil
}

// slotWindow projects an absolute window onto the weekly slot grid. Windows
// crossing midnight UTC cannot be covered by a single slot and report ok =
// false.
func slotWindow(scheduledAt time.Time, durationMinutes int) (weekday, startMinute, endMinute int, ok bool) {
	start := scheduledAt.UTC()
	weekday = int(start.Weekday())
	startMinute = start.Hour()*60 + start.Minute()
	endMinute = startMinute + durationMinutes
	if endMinute > minutesPerDay {
		return 0, 0, 0, false
	}
	return weekday, startMinute, endMinute, true
}
