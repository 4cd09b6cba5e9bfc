// Package payments talks to the card processor: it creates payment intents and
// authenticates webhook deliveries.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

var (
	ErrNotConfigured    = errors.New("payment processor not configured")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

type Intent struct {
	ID           string
	ClientSecret string
}

// WebhookEvent is the part of a processor event the ledger cares about.
// PaymentIntentID is empty for events that are not about a payment intent.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
}

// Gateway creates intents and verifies webhooks.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error)
	VerifyWebhook(payload []byte, signature string) (WebhookEvent, error)
}

// Stripe is the Gateway backed by the Stripe API.
type Stripe struct {
	intents       paymentintent.Client
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{
		intents:       paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookSecret: webhookSecret,
	}
}

func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error) {
	const op = "payments.CreateIntent"
	if s.intents.Key == "" {
		return Intent{}, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := s.intents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("%s: %w", op, err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyWebhook checks the signature header against the raw body before
// anything in it is trusted.
func (s *Stripe) VerifyWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if s.webhookSecret == "" {
		return WebhookEvent{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return WebhookEvent{}, fmt.Errorf("payments.VerifyWebhook: %w", err)
		}
		out.PaymentIntentID = pi.ID
	}
	return out, nil
}
