package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// Tolerance bounds the age of a signed webhook delivery. Zero means
	// the library default of five minutes.
	Tolerance time.Duration
	// BaseURL overrides the API host, used by tests.
	BaseURL string
}

// StripeProvider implements Provider on top of Stripe Checkout.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	api := &client.API{}
	if cfg.BaseURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(cfg.BaseURL),
		})
		api.Init(cfg.SecretKey, &stripe.Backends{API: backend})
	} else {
		api.Init(cfg.SecretKey, nil)
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     tolerance,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.OrderID, 10)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ItemName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sessionFromStripe(s), nil
}

func (p *StripeProvider) FetchSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("stripe fetch checkout session: %w", err)
	}
	return sessionFromStripe(s), nil
}

// VerifyEvent checks the signature over the raw payload before anything is
// parsed. The returned event carries session fields only for the checkout
// event types; all others come back as KindOther.
func (p *StripeProvider) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe webhook verification: %w", err)
	}

	out := &Event{
		ID:       ev.ID,
		Kind:     KindOther,
		Mode:     ModeOther,
		Livemode: ev.Livemode,
	}
	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		out.Kind = KindCompleted
	case stripe.EventTypeCheckoutSessionExpired:
		out.Kind = KindExpired
	default:
		return out, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("stripe webhook session payload: %w", err)
	}
	out.SessionID = cs.ID
	out.OrderRef = cs.ClientReferenceID
	out.PaymentStatus = PaymentStatus(cs.PaymentStatus)
	if cs.Mode == stripe.CheckoutSessionModePayment {
		out.Mode = ModePayment
	}
	return out, nil
}

func sessionFromStripe(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:            s.ID,
		URL:           s.URL,
		OrderRef:      s.ClientReferenceID,
		Amount:        s.AmountTotal,
		Currency:      string(s.Currency),
		PaymentStatus: PaymentStatus(s.PaymentStatus),
		Status:        string(s.Status),
	}
}
