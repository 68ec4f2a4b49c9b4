package services

import (
	"context"
	"strings"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/google/uuid"
)

// MeetingLinkProvider returns a joinable URL for a confirmed booking.
type MeetingLinkProvider interface {
	Provision(ctx context.Context, booking *models.Booking) (string, error)
}

type meetingLinkProvider struct {
	baseURL string
}

func NewMeetingLinkProvider(baseURL string) MeetingLinkProvider {
	return &meetingLinkProvider{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *meetingLinkProvider) Provision(_ context.Context, _ *models.Booking) (string, error) {
	return p.baseURL + "/" + uuid.NewString(), nil
}
