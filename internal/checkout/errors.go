package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrEmptyCustomerName  = errors.New("customer name is required")
	ErrNotAwaitingConfirm = errors.New("no checkout awaiting confirmation")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrCheckoutInProgress = errors.New("checkout already awaiting confirmation")
)

// PersistenceError wraps a transaction store failure. The cart is left
// untouched so the operator can retry the same checkout.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("transaction could not be persisted: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
