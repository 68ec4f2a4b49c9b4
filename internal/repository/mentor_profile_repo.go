package repository

import (
	"context"

	"github.com/Townsmeet/imentor-sub000/internal/models"
)

type MentorProfileRepository struct {
	db DBTX
}

func NewMentorProfileRepository(db DBTX) *MentorProfileRepository {
	return &MentorProfileRepository{db: db}
}

func (r *MentorProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.MentorProfile, error) {
	query := `
		SELECT id, user_id, full_name, headline, hourly_rate, total_sessions, onboarding_complete, created_at, updated_at
		FROM mentor_profiles
		WHERE user_id = $1
	`
	var profile models.MentorProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Headline,
		&profile.HourlyRate,
		&profile.TotalSessions,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// IncrementTotalSessions bumps the mentor's completed-session counter.
func (r *MentorProfileRepository) IncrementTotalSessions(ctx context.Context, userID int64) error {
	query := `
		UPDATE mentor_profiles
		SET total_sessions = total_sessions + 1, updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}
