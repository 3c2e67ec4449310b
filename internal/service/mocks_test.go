package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/narumikatou1-bot/everytime-checkout/pkg/orders"
	"github.com/narumikatou1-bot/everytime-checkout/pkg/payment"
)

// fakeProvider implements payment.Provider. CreateSession honors the
// idempotency key the way the real provider does: the same key returns
// the session created first.
type fakeProvider struct {
	created    map[string]*payment.Session
	createReqs []payment.SessionRequest
	createErr  error

	fetched  *payment.Session
	fetchErr error

	event     *payment.Event
	verifyErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{created: make(map[string]*payment.Session)}
}

func (f *fakeProvider) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	f.createReqs = append(f.createReqs, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if s, ok := f.created[req.IdempotencyKey]; ok {
		return s, nil
	}
	s := &payment.Session{
		ID:            fmt.Sprintf("cs_test_%d", len(f.created)+1),
		URL:           fmt.Sprintf("https://checkout.stripe.com/c/pay/cs_test_%d", len(f.created)+1),
		OrderRef:      strconv.FormatInt(req.OrderID, 10),
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentStatus: payment.StatusUnpaid,
		Status:        "open",
	}
	f.created[req.IdempotencyKey] = s
	return s, nil
}

func (f *fakeProvider) FetchSession(_ context.Context, id string) (*payment.Session, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.fetched == nil || f.fetched.ID != id {
		return nil, payment.ErrSessionNotFound
	}
	return f.fetched, nil
}

func (f *fakeProvider) VerifyEvent(_ []byte, _ string) (*payment.Event, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.event, nil
}

type statusUpdate struct {
	orderID      int64
	next, expect orders.Status
}

// fakeOrders implements orders.Client with the backend's conditional
// update semantics so replay tests exercise the real contract.
type fakeOrders struct {
	statuses map[int64]orders.Status

	fetchErr   error
	fetchCalls int

	updateErr error
	updates   []statusUpdate
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{statuses: make(map[int64]orders.Status)}
}

func (f *fakeOrders) FetchStatus(_ context.Context, orderID int64) (orders.Status, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	status, ok := f.statuses[orderID]
	if !ok {
		return "", orders.ErrNotFound
	}
	return status, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID int64, next, expect orders.Status) error {
	f.updates = append(f.updates, statusUpdate{orderID: orderID, next: next, expect: expect})
	if f.updateErr != nil {
		return f.updateErr
	}
	current, ok := f.statuses[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	if current != expect {
		return orders.ErrConflict
	}
	f.statuses[orderID] = next
	return nil
}
