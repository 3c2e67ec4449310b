package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narumikatou1-bot/everytime-checkout/pkg/orders"
	"github.com/narumikatou1-bot/everytime-checkout/pkg/payment"
)

func paidCompletedEvent(orderRef string) *payment.Event {
	return &payment.Event{
		ID:            "evt_1",
		Kind:          payment.KindCompleted,
		Mode:          payment.ModePayment,
		PaymentStatus: payment.StatusPaid,
		OrderRef:      orderRef,
		SessionID:     "cs_test_1",
	}
}

func TestHandleEventSettlesPendingOrder(t *testing.T) {
	provider := newFakeProvider()
	provider.event = paidCompletedEvent("1042")
	backend := newFakeOrders()
	backend.statuses[1042] = orders.StatusPending
	svc := NewReconcileService(provider, backend)

	outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, outcome)

	require.Len(t, backend.updates, 1)
	assert.Equal(t, statusUpdate{orderID: 1042, next: orders.StatusProcessing, expect: orders.StatusPending}, backend.updates[0])
	assert.Equal(t, orders.StatusProcessing, backend.statuses[1042])
}

func TestHandleEventBadSignature(t *testing.T) {
	provider := newFakeProvider()
	provider.verifyErr = errors.New("no valid signature found")
	backend := newFakeOrders()
	svc := NewReconcileService(provider, backend)

	_, err := svc.HandleEvent(context.Background(), []byte(`{"type":"checkout.session.completed"}`), "t=1,v1=bad")
	require.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Zero(t, backend.fetchCalls, "unverified payload must not touch the backend")
	assert.Empty(t, backend.updates)
}

func TestHandleEventReplayAfterSettlement(t *testing.T) {
	for _, status := range []orders.Status{orders.StatusProcessing, orders.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			provider := newFakeProvider()
			provider.event = paidCompletedEvent("1042")
			backend := newFakeOrders()
			backend.statuses[1042] = status
			svc := NewReconcileService(provider, backend)

			outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
			require.NoError(t, err)
			assert.Equal(t, OutcomeAlreadySettled, outcome)
			assert.Empty(t, backend.updates, "replay must not write")
			assert.Equal(t, status, backend.statuses[1042])
		})
	}
}

func TestHandleEventConcurrentSettlementConflict(t *testing.T) {
	provider := newFakeProvider()
	provider.event = paidCompletedEvent("1042")
	backend := newFakeOrders()
	backend.statuses[1042] = orders.StatusPending
	backend.updateErr = orders.ErrConflict
	svc := NewReconcileService(provider, backend)

	outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySettled, outcome)
}

func TestHandleEventUnpaidCompletionIgnored(t *testing.T) {
	for _, status := range []payment.PaymentStatus{payment.StatusUnpaid, payment.StatusNotRequired} {
		t.Run(string(status), func(t *testing.T) {
			provider := newFakeProvider()
			event := paidCompletedEvent("1042")
			event.PaymentStatus = status
			provider.event = event
			backend := newFakeOrders()
			backend.statuses[1042] = orders.StatusPending
			svc := NewReconcileService(provider, backend)

			outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, outcome)
			assert.Zero(t, backend.fetchCalls)
			assert.Empty(t, backend.updates)
		})
	}
}

func TestHandleEventNonPaymentModeIgnored(t *testing.T) {
	provider := newFakeProvider()
	event := paidCompletedEvent("1042")
	event.Mode = payment.ModeOther
	provider.event = event
	backend := newFakeOrders()
	backend.statuses[1042] = orders.StatusPending
	svc := NewReconcileService(provider, backend)

	outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, backend.updates)
}

func TestHandleEventUnusableOrderRefIgnored(t *testing.T) {
	for _, ref := range []string{"", "abc", "0", "-3", "12.5"} {
		t.Run("ref="+ref, func(t *testing.T) {
			provider := newFakeProvider()
			provider.event = paidCompletedEvent(ref)
			backend := newFakeOrders()
			svc := NewReconcileService(provider, backend)

			outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, outcome)
			assert.Zero(t, backend.fetchCalls)
		})
	}
}

func TestHandleEventUnknownOrderIgnored(t *testing.T) {
	provider := newFakeProvider()
	provider.event = paidCompletedEvent("9999")
	backend := newFakeOrders()
	svc := NewReconcileService(provider, backend)

	outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, backend.updates)
}

func TestHandleEventUnknownTypeIgnored(t *testing.T) {
	provider := newFakeProvider()
	provider.event = &payment.Event{ID: "evt_1", Kind: payment.KindOther}
	backend := newFakeOrders()
	svc := NewReconcileService(provider, backend)

	outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Zero(t, backend.fetchCalls)
}

func TestHandleEventExpiredSessionNoted(t *testing.T) {
	provider := newFakeProvider()
	provider.event = &payment.Event{
		ID:        "evt_2",
		Kind:      payment.KindExpired,
		Mode:      payment.ModePayment,
		OrderRef:  "1042",
		SessionID: "cs_test_1",
	}
	backend := newFakeOrders()
	backend.statuses[1042] = orders.StatusPending
	svc := NewReconcileService(provider, backend)

	outcome, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoted, outcome)
	assert.Zero(t, backend.fetchCalls, "expiry never touches the backend")
	assert.Equal(t, orders.StatusPending, backend.statuses[1042])
}

func TestHandleEventBackendFetchFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.event = paidCompletedEvent("1042")
	backend := newFakeOrders()
	backend.fetchErr = errors.New("connection refused")
	svc := NewReconcileService(provider, backend)

	_, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.ErrorIs(t, err, ErrReconciliation)
}

func TestHandleEventBackendUpdateFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.event = paidCompletedEvent("1042")
	backend := newFakeOrders()
	backend.statuses[1042] = orders.StatusPending
	backend.updateErr = errors.New("connection refused")
	svc := NewReconcileService(provider, backend)

	_, err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.ErrorIs(t, err, ErrReconciliation)
}

// Issue a session for an order, settle it, then replay the settlement.
func TestCheckoutThenSettleFlow(t *testing.T) {
	provider := newFakeProvider()
	backend := newFakeOrders()
	backend.statuses[1042] = orders.StatusPending

	checkout := newCheckoutService(provider)
	reconcile := NewReconcileService(provider, backend)

	sess, err := checkout.CreateSession(context.Background(), 1042, 5980)
	require.NoError(t, err)

	provider.event = &payment.Event{
		ID:            "evt_1",
		Kind:          payment.KindCompleted,
		Mode:          payment.ModePayment,
		PaymentStatus: payment.StatusPaid,
		OrderRef:      sess.OrderRef,
		SessionID:     sess.ID,
	}

	outcome, err := reconcile.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, outcome)
	assert.Equal(t, orders.StatusProcessing, backend.statuses[1042])

	outcome, err = reconcile.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySettled, outcome)
	require.Len(t, backend.updates, 1, "settlement must write exactly once")
}
