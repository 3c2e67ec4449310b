package service

import "errors"

var (
	// ErrInvalidInput rejects a request before anything leaves the process.
	ErrInvalidInput = errors.New("invalid checkout input")
	// ErrSignatureInvalid marks a webhook delivery that failed signature
	// verification or could not be parsed. Never retried by the sender.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
	// ErrSessionCreation wraps provider failures while issuing a session.
	ErrSessionCreation = errors.New("checkout session creation failed")
	// ErrSessionLookup wraps provider failures while reading a session.
	ErrSessionLookup = errors.New("checkout session lookup failed")
	// ErrReconciliation wraps order backend failures during settlement. The
	// delivery is answered so the sender retries it.
	ErrReconciliation = errors.New("order reconciliation failed")
)
