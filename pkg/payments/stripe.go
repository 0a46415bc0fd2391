package payments

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Transaction outcome values reported to the order core.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

// Transaction is the processor-side record of a payment attempt, with the
// amount in minor currency units.
type Transaction struct {
	TransactionID string
	ClientSecret  string
	Status        string
	Amount        int64
	Currency      string
	Metadata      map[string]string
}

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type refundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// Config holds Stripe connection details.
type Config struct {
	APIKey string
}

// StripeClient talks to Stripe's PaymentIntents and Refunds APIs. The API
// surfaces are interfaces so tests can stub them without network access.
type StripeClient struct {
	intents intentAPI
	refunds refundAPI
}

// NewStripeClient creates a Stripe-backed processor client.
func NewStripeClient(cfg Config) (*StripeClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	log.Println("Stripe client initialized.")
	return &StripeClient{
		intents: sc.PaymentIntents,
		refunds: sc.Refunds,
	}, nil
}

// CreateTransaction opens a PaymentIntent for the given minor-unit amount and
// returns its id and client secret for the customer to complete out-of-band.
func (c *StripeClient) CreateTransaction(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Transaction, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	if len(metadata) > 0 {
		params.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			params.Metadata[k] = v
		}
		// The order id doubles as the idempotency key, so a retried request
		// cannot open a second intent for the same order.
		if orderID := metadata["order_id"]; orderID != "" {
			params.SetIdempotencyKey("order-intent-" + orderID)
		}
	}

	intent, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return stripeTransaction(intent), nil
}

// GetTransaction retrieves the processor's authoritative record of a
// transaction. Reconciliation trusts only this, never the caller.
func (c *StripeClient) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := c.intents.Get(transactionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: lookup payment intent %s: %w", transactionID, err)
	}
	return stripeTransaction(intent), nil
}

// RefundTransaction refunds the full amount of a settled transaction.
func (c *StripeClient) RefundTransaction(ctx context.Context, transactionID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("order-refund-" + transactionID)
	if _, err := c.refunds.New(params); err != nil {
		return fmt.Errorf("stripe: refund payment intent %s: %w", transactionID, err)
	}
	return nil
}

// stripeTransaction maps a Stripe intent onto the processor-neutral record.
// Anything not terminally succeeded or canceled is still pending.
func stripeTransaction(intent *stripe.PaymentIntent) *Transaction {
	status := StatusPending
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		status = StatusFailed
	}

	return &Transaction{
		TransactionID: intent.ID,
		ClientSecret:  intent.ClientSecret,
		Status:        status,
		Amount:        intent.Amount,
		Currency:      strings.ToUpper(string(intent.Currency)),
		Metadata:      intent.Metadata,
	}
}
