package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/pricing"
)

type State string

const (
	StateIdle                 State = "IDLE"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateSubmitting           State = "SUBMITTING"
)

func (s State) String() string {
	return string(s)
}

// TransactionInserter is the slice of the transaction store the orchestrator
// needs: a single atomic append of a completed sale.
type TransactionInserter interface {
	InsertTransaction(ctx context.Context, record *domain.TransactionRecord) error
}

const defaultSubmitTimeout = 10 * time.Second

// Orchestrator walks one cart through checkout: validation, an explicit
// confirmation gate, and the single store insert. A record is persisted if
// and only if Confirm returns it, and the cart is cleared if and only if the
// record was persisted.
type Orchestrator struct {
	mu            sync.Mutex
	state         State
	cart          *domain.Cart
	store         TransactionInserter
	submitTimeout time.Duration
	now           func() time.Time
}

func NewOrchestrator(cart *domain.Cart, store TransactionInserter) *Orchestrator {
	return &Orchestrator{
		state:         StateIdle,
		cart:          cart,
		store:         store,
		submitTimeout: defaultSubmitTimeout,
		now:           time.Now,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin validates the cart and moves Idle -> AwaitingConfirmation. On a
// validation failure the state does not move and no store call is made.
func (o *Orchestrator) Begin() (pricing.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateSubmitting:
		return pricing.Snapshot{}, ErrSubmissionInFlight
	case StateAwaitingConfirmation:
		return pricing.Snapshot{}, ErrCheckoutInProgress
	}

	if strings.TrimSpace(o.cart.CustomerName) == "" {
		return pricing.Snapshot{}, ErrEmptyCustomerName
	}
	if o.cart.IsEmpty() {
		return pricing.Snapshot{}, ErrEmptyCart
	}

	o.state = StateAwaitingConfirmation
	return pricing.Quote(o.cart), nil
}

// Cancel abandons a pending confirmation. The cart keeps its contents.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateIdle:
		return ErrNotAwaitingConfirm
	}
	o.state = StateIdle
	return nil
}

// Confirm snapshots the cart into an immutable TransactionRecord and persists
// it. On success the cart is cleared atomically with the acknowledged insert;
// on failure the cart is untouched and the same checkout can be retried.
// A second Confirm while one is submitting is rejected.
func (o *Orchestrator) Confirm(ctx context.Context) (*domain.TransactionRecord, error) {
	o.mu.Lock()
	switch o.state {
	case StateSubmitting:
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case StateIdle:
		o.mu.Unlock()
		return nil, ErrNotAwaitingConfirm
	}

	record := o.snapshotLocked()
	o.state = StateSubmitting
	o.mu.Unlock()

	// The store call is the only suspension point; the lock is not held so
	// state can still be observed, but the Submitting guard above keeps this
	// path single-flight.
	submitCtx, cancel := context.WithTimeout(ctx, o.submitTimeout)
	defer cancel()
	err := o.store.InsertTransaction(submitCtx, record)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	o.cart.Clear()
	return record, nil
}

// Mutate applies fn to the cart under the checkout lock. Mutations are
// rejected while a submission is in flight, so a line added mid-submit can
// never be dropped by the post-persist clear without having been persisted.
func (o *Orchestrator) Mutate(fn func(*domain.Cart)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	fn(o.cart)
	return nil
}

// snapshotLocked deep-copies the cart lines so later cart mutation cannot
// alter the persisted record. Caller holds o.mu.
func (o *Orchestrator) snapshotLocked() *domain.TransactionRecord {
	items := make([]domain.TransactionItem, len(o.cart.Lines))
	for i, line := range o.cart.Lines {
		items[i] = domain.TransactionItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	quote := pricing.Quote(o.cart)
	return &domain.TransactionRecord{
		ID:           uuid.New(),
		CustomerName: strings.TrimSpace(o.cart.CustomerName),
		Items:        items,
		Total:        quote.FinalTotal,
		Note:         o.cart.Note,
		Status:       domain.TransactionStatusCompleted,
		CreatedAt:    o.now().UTC(),
	}
}
