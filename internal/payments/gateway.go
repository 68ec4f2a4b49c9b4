package payments

import (
	"context"
	"errors"
)

// ErrUnavailable marks gateway failures that are safe to retry: the processor
// was unreachable or answered with a server error, and no durable state was
// created on our side.
var ErrUnavailable = errors.New("payment gateway unavailable")

type IntentStatus string

const (
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusFailed    IntentStatus = "failed"
)

// Intent is the processor's handle for an in-progress charge attempt plus the
// client-side secret needed to finish payment.
type Intent struct {
	Ref          string
	ClientSecret string
	Status       IntentStatus
}

// WebhookEvent is a verified processor event, reduced to what ingestion
// needs.
type WebhookEvent struct {
	Type      string
	IntentRef string
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Gateway is the payment processor contract consumed by the booking and
// payout services. All methods hit the network; callers bound them with a
// context deadline and must not hold row locks across them.
type Gateway interface {
	CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*Intent, error)
	GetIntentStatus(ctx context.Context, intentRef string) (IntentStatus, error)
	Refund(ctx context.Context, intentRef string) error
	Transfer(ctx context.Context, destination string, amount float64, currency string, idempotencyKey string, metadata map[string]string) (string, error)
}

// Verifier authenticates a raw webhook payload against the processor's
// signature before any of it is trusted.
type Verifier interface {
	Verify(payload []byte, signature string) (*WebhookEvent, error)
}
