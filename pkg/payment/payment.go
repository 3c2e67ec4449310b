package payment

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when the provider has no session with the
// requested id.
var ErrSessionNotFound = errors.New("checkout session not found")

// Kind classifies provider webhook events into the few shapes the relay
// acts on. Everything else is KindOther and gets acknowledged untouched.
type Kind string

const (
	KindCompleted Kind = "completed"
	KindExpired   Kind = "expired"
	KindOther     Kind = "other"
)

// Mode mirrors the provider's session mode. Only one-time payments are
// settled; subscription and setup sessions pass through as ModeOther.
type Mode string

const (
	ModePayment Mode = "payment"
	ModeOther   Mode = "other"
)

// PaymentStatus is the provider's view of whether money actually moved.
type PaymentStatus string

const (
	StatusPaid        PaymentStatus = "paid"
	StatusUnpaid      PaymentStatus = "unpaid"
	StatusNotRequired PaymentStatus = "no_payment_required"
)

type SessionRequest struct {
	OrderID        int64
	Amount         int64 // smallest currency unit
	Currency       string
	ItemName       string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	ExpiresAt      time.Time
}

type Session struct {
	ID            string
	URL           string
	OrderRef      string
	Amount        int64
	Currency      string
	PaymentStatus PaymentStatus
	Status        string // open, complete or expired
}

// Event is a verified webhook delivery reduced to the fields the
// reconciler needs. OrderRef carries the session's client reference id
// and may be empty or malformed; callers decide what to do with it.
type Event struct {
	ID            string
	Kind          Kind
	Mode          Mode
	PaymentStatus PaymentStatus
	OrderRef      string
	SessionID     string
	Livemode      bool
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	FetchSession(ctx context.Context, id string) (*Session, error)
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
