package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/narumikatou1-bot/everytime-checkout/pkg/orders"
	"github.com/narumikatou1-bot/everytime-checkout/pkg/payment"
)

// Outcome describes what a verified webhook delivery did to the order
// backend. Every outcome is acknowledged to the sender the same way;
// outcomes exist for logging and metrics.
type Outcome string

const (
	OutcomeSettled        Outcome = "settled"
	OutcomeAlreadySettled Outcome = "already_settled"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeNoted          Outcome = "noted"
)

// ReconcileService turns provider webhook deliveries into order status
// transitions. A settlement is applied at most once per order no matter
// how often the provider delivers the event.
type ReconcileService struct {
	provider payment.Provider
	orders   orders.Client
}

func NewReconcileService(provider payment.Provider, ordersClient orders.Client) *ReconcileService {
	return &ReconcileService{provider: provider, orders: ordersClient}
}

// HandleEvent verifies the delivery against the raw payload and applies
// it. Signature failures are terminal; order backend failures surface as
// ErrReconciliation so the handler answers with a retryable status.
func (s *ReconcileService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	event, err := s.provider.VerifyEvent(payload, sigHeader)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}

	switch event.Kind {
	case payment.KindCompleted:
		return s.settle(ctx, event)
	case payment.KindExpired:
		logrus.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"session_id": event.SessionID,
			"order_ref":  event.OrderRef,
		}).Info("checkout session expired unpaid")
		return OutcomeNoted, nil
	default:
		return OutcomeIgnored, nil
	}
}

func (s *ReconcileService) settle(ctx context.Context, event *payment.Event) (Outcome, error) {
	// Completed sessions settle only when they are one-time payments that
	// actually got paid. Async payment methods complete with an unpaid
	// session first and are not settled here.
	if event.Mode != payment.ModePayment || event.PaymentStatus != payment.StatusPaid {
		return OutcomeIgnored, nil
	}
	orderID, err := strconv.ParseInt(event.OrderRef, 10, 64)
	if err != nil || orderID <= 0 {
		logrus.WithFields(logrus.Fields{
			"event_id":  event.ID,
			"order_ref": event.OrderRef,
		}).Warn("settlement event without a usable order reference")
		return OutcomeIgnored, nil
	}

	current, err := s.orders.FetchStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			logrus.WithField("order_id", orderID).Warn("settlement event for unknown order")
			return OutcomeIgnored, nil
		}
		return "", fmt.Errorf("%w: fetch order %d: %w", ErrReconciliation, orderID, err)
	}
	if current.Settled() {
		logrus.WithFields(logrus.Fields{
			"order_id": orderID,
			"status":   current,
		}).Info("settlement replayed, order already settled")
		return OutcomeAlreadySettled, nil
	}

	// Conditional update: if another delivery of the same event settled the
	// order between the read above and this write, the backend reports a
	// conflict instead of applying the transition twice.
	if err := s.orders.UpdateStatus(ctx, orderID, orders.StatusProcessing, current); err != nil {
		if errors.Is(err, orders.ErrConflict) {
			return OutcomeAlreadySettled, nil
		}
		return "", fmt.Errorf("%w: update order %d: %w", ErrReconciliation, orderID, err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   orderID,
		"session_id": event.SessionID,
		"event_id":   event.ID,
	}).Info("order settled")
	return OutcomeSettled, nil
}
