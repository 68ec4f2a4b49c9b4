package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) CreateIntent(
	ctx context.Context,
	amount float64,
	currency string,
	metadata map[string]string,
) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(toCents(amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return &Intent{
		Ref:          pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapIntentStatus(pi.Status),
	}, nil
}

func (g *StripeGateway) GetIntentStatus(ctx context.Context, intentRef string) (IntentStatus, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	pi, err := g.api.PaymentIntents.Get(intentRef, params)
	if err != nil {
		return "", mapStripeError(err)
	}
	return mapIntentStatus(pi.Status), nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentRef string) error {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(intentRef),
	}
	if _, err := g.api.Refunds.New(params); err != nil {
		return mapStripeError(err)
	}
	return nil
}

func (g *StripeGateway) Transfer(
	ctx context.Context,
	destination string,
	amount float64,
	currency string,
	idempotencyKey string,
	metadata map[string]string,
) (string, error) {
	params := &stripe.TransferParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(toCents(amount)),
		Currency:    stripe.String(currency),
		Destination: stripe.String(destination),
	}
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}
	// The caller derives the key from its payout record, so retries of the
	// same payout are deduplicated by the processor.
	params.SetIdempotencyKey(idempotencyKey)

	transfer, err := g.api.Transfers.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}
	return transfer.ID, nil
}

func mapIntentStatus(status stripe.PaymentIntentStatus) IntentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentStatusFailed
	default:
		return IntentStatusPending
	}
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrUnavailable, stripeErr.Msg)
		}
		return err
	}
	// Non-API errors are transport failures (timeouts, DNS, resets).
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// StripeWebhookVerifier checks event signatures with the endpoint's signing
// secret and extracts the intent reference.
type StripeWebhookVerifier struct {
	signingSecret string
}

func NewStripeWebhookVerifier(signingSecret string) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{signingSecret: signingSecret}
}

func (v *StripeWebhookVerifier) Verify(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, v.signingSecret)
	if err != nil {
		return nil, err
	}

	parsed := &WebhookEvent{Type: string(event.Type)}
	switch parsed.Type {
	case EventIntentSucceeded, EventIntentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent payload: %w", err)
		}
		parsed.IntentRef = intent.ID
	}
	return parsed, nil
}
