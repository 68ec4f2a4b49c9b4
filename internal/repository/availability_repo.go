package repository

import (
	"context"

	"github.com/Townsmeet/imentor-sub000/internal/models"
)

type CreateSlotInput struct {
	MentorID    int64
	Weekday     int
	StartMinute int
	EndMinute   int
	IsAvailable bool
}

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) Create(ctx context.Context, input CreateSlotInput) (*models.AvailabilitySlot, error) {
	query := `
		INSERT INTO availability_slots (mentor_id, weekday, start_minute, end_minute, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, mentor_id, weekday, start_minute, end_minute, is_available, created_at
	`

	var slot models.AvailabilitySlot
	err := r.db.QueryRow(
		ctx,
		query,
		input.MentorID,
		input.Weekday,
		input.StartMinute,
		input.EndMinute,
		input.IsAvailable,
	).Scan(
		&slot.ID,
		&slot.MentorID,
		&slot.Weekday,
		&slot.StartMinute,
		&slot.EndMinute,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *AvailabilityRepository) ListByMentor(ctx context.Context, mentorID int64) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT id, mentor_id, weekday, start_minute, end_minute, is_available, created_at
		FROM availability_slots
		WHERE mentor_id = $1
		ORDER BY weekday ASC, start_minute ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, mentorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.AvailabilitySlot, 0)
	for rows.Next() {
		var slot models.AvailabilitySlot
		if err := rows.Scan(
			&slot.ID,
			&slot.MentorID,
			&slot.Weekday,
			&slot.StartMinute,
			&slot.EndMinute,
			&slot.IsAvailable,
			&slot.CreatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

// IsSlotOpen reports whether some available slot for the mentor and weekday
// fully covers [startMinute, endMinute].
func (r *AvailabilityRepository) IsSlotOpen(
	ctx context.Context,
	mentorID int64,
	weekday int,
	startMinute int,
	endMinute int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM availability_slots
			WHERE mentor_id = $1
			  AND weekday = $2
			  AND is_available
			  AND start_minute <= $3
			  AND end_minute >= $4
		)
	`
	var open bool
	if err := r.db.QueryRow(ctx, query, mentorID, weekday, startMinute, endMinute).Scan(&open); err != nil {
		return false, err
	}
	return open, nil
}

func (r *AvailabilityRepository) SetAvailable(
	ctx context.Context,
	mentorID int64,
	slotID int64,
	isAvailable bool,
) (bool, error) {
	query := `
		UPDATE availability_slots
		SET is_available = $3
		WHERE id = $1 AND mentor_id = $2
	`
	tag, err := r.db.Exec(ctx, query, slotID, mentorID, isAvailable)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AvailabilityRepository) Delete(ctx context.Context, mentorID int64, slotID int64) (bool, error) {
	query := `DELETE FROM availability_slots WHERE id = $1 AND mentor_id = $2`
	tag, err := r.db.Exec(ctx, query, slotID, mentorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AvailabilityRepository) DeleteAllByMentor(ctx context.Context, mentorID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM availability_slots WHERE mentor_id = $1`, mentorID)
	return err
}
