package orders

import (
	"context"
	"errors"
)

// Status is the order backend's lifecycle state for an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Settled reports whether the order has already entered fulfilment, i.e.
// a settlement for it must not be applied again.
func (s Status) Settled() bool {
	return s == StatusProcessing || s == StatusCompleted
}

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the backend's current status no longer matches the
	// expected one; someone else updated the order first.
	ErrConflict = errors.New("order status conflict")
)

type Client interface {
	FetchStatus(ctx context.Context, orderID int64) (Status, error)
	// UpdateStatus moves the order to next only while its status still
	// equals expect, returning ErrConflict otherwise.
	UpdateStatus(ctx context.Context, orderID int64, next, expect Status) error
}
