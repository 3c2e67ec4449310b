package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/narumikatou1-bot/everytime-checkout/pkg/payment"
)

type CheckoutConfig struct {
	// PublicBaseURL is where the shopper lands after checkout, e.g.
	// https://shop.example.com. Redirect URLs are built from it.
	PublicBaseURL string
	Currency      string
	SessionExpiry time.Duration
}

// CheckoutService issues hosted checkout sessions for orders. Issuing is
// idempotent per order: the idempotency key is derived from the order id,
// so retrying the same order returns the session created first.
type CheckoutService struct {
	provider payment.Provider
	cfg      CheckoutConfig
}

func NewCheckoutService(provider payment.Provider, cfg CheckoutConfig) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "jpy"
	}
	if cfg.SessionExpiry <= 0 {
		cfg.SessionExpiry = 24 * time.Hour
	}
	return &CheckoutService{provider: provider, cfg: cfg}
}

func (s *CheckoutService) CreateSession(ctx context.Context, orderID, amount int64) (*payment.Session, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order id must be positive", ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	req := payment.SessionRequest{
		OrderID:        orderID,
		Amount:         amount,
		Currency:       s.cfg.Currency,
		ItemName:       fmt.Sprintf("Order #%d", orderID),
		SuccessURL:     fmt.Sprintf("%s/checkout/success?order_id=%d&session_id={CHECKOUT_SESSION_ID}", s.cfg.PublicBaseURL, orderID),
		CancelURL:      fmt.Sprintf("%s/checkout/cancel?order_id=%d", s.cfg.PublicBaseURL, orderID),
		IdempotencyKey: fmt.Sprintf("order-%d", orderID),
		ExpiresAt:      time.Now().Add(s.cfg.SessionExpiry),
	}

	sess, err := s.provider.CreateSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   orderID,
		"session_id": sess.ID,
		"amount":     amount,
		"currency":   req.Currency,
	}).Info("checkout session issued")
	return sess, nil
}

// SessionStatus reads the session back from the provider. It never
// consults the order backend; the provider is the source of truth for
// session state.
func (s *CheckoutService) SessionStatus(ctx context.Context, sessionID string) (*payment.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	sess, err := s.provider.FetchSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionLookup, err)
	}
	return sess, nil
}
