// Package discount holds discount rules and the pricing math applied to
// products at catalog-read and order-creation time.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested discount does not exist.
	ErrNotFound = errors.New("discount not found")
	// ErrBothKinds is returned when a rule sets both a percentage and a
	// fixed amount. Exactly one must be set.
	ErrBothKinds = errors.New("provide either a percentage or an amount, not both")
	// ErrNoKind is returned when a rule sets neither a percentage nor a
	// fixed amount.
	ErrNoKind = errors.New("either a percentage or an amount is required")
	// ErrInvalidWindow is returned when the active window is empty or inverted.
	ErrInvalidWindow = errors.New("start date must be before end date")
	// ErrPercentageRange is returned when a percentage is outside (0, 100].
	ErrPercentageRange = errors.New("percentage must be within (0, 100]")
	// ErrNegativeAmount is returned when a fixed amount is not positive.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrOverlap is returned when a new rule's window overlaps an existing
	// active rule for the same product. At most one discount may be active
	// per product per instant so pricing stays unambiguous.
	ErrOverlap = errors.New("an active discount already covers this period")
)

// Discount is a time-boxed price reduction for a single product. Exactly one
// of Percentage or Amount is non-nil.
type Discount struct {
	ID         string
	ProductID  string
	Percentage *decimal.Decimal
	Amount     *decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
	Active     bool
	CreatedBy  string
	CreatedAt  time.Time
}

// Validate checks the rule's structural invariants. It does not check
// overlap with other rules; that requires the repository.
func (d *Discount) Validate() error {
	switch {
	case d.Percentage != nil && d.Amount != nil:
		return ErrBothKinds
	case d.Percentage == nil && d.Amount == nil:
		return ErrNoKind
	}

	if d.Percentage != nil {
		p := *d.Percentage
		if !p.IsPositive() || p.GreaterThan(decimal.NewFromInt(100)) {
			return ErrPercentageRange
		}
	}
	if d.Amount != nil && !d.Amount.IsPositive() {
		return ErrNegativeAmount
	}

	if !d.StartDate.Before(d.EndDate) {
		return ErrInvalidWindow
	}

	return nil
}

// ActiveAt reports whether the rule applies at the given instant.
func (d *Discount) ActiveAt(at time.Time) bool {
	return d.Active && !at.Before(d.StartDate) && !at.After(d.EndDate)
}

// ListFilter narrows List results.
type ListFilter struct {
	Active *bool
	Page   int
	Limit  int
}

// Repository defines persistence operations for discount rules.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Discount, int, error)
	GetByID(ctx context.Context, id string) (*Discount, error)
	ListByProduct(ctx context.Context, productID string, active *bool) ([]Discount, error)
	// Create persists the rule. It fails with ErrOverlap when another
	// active rule for the same product covers any part of the window.
	Create(ctx context.Context, d *Discount) error
	// Deactivate clears the active flag, ending the rule immediately.
	Deactivate(ctx context.Context, id string) error
}
