package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// CheckoutService handles the payment-provider interactions: creating a
// checkout session for a credit purchase and verifying the confirmation
// webhook. Fulfillment itself (crediting the ledger) lives with the caller.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, userID string) (string, error)
	ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error)
}

type stripeCheckout struct {
	api           *client.API
	priceID       string
	webhookSecret string
	host          string
	credits       int
}

func NewStripeCheckout(secretKey, priceID, webhookSecret, host string, creditsPerPurchase int) CheckoutService {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeCheckout{
		api:           api,
		priceID:       priceID,
		webhookSecret: webhookSecret,
		host:          host,
		credits:       creditsPerPurchase,
	}
}

func (s *stripeCheckout) CreateCheckout(ctx context.Context, userID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(s.priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.host + "/"),
		CancelURL:  stripe.String(s.host + "/"),
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("credits", strconv.Itoa(s.credits))

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("could not create checkout session: %w", err)
	}
	return session.URL, nil
}

func (s *stripeCheckout) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
