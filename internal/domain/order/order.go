// Package order implements the order-creation workflow, the order status
// state machine, and the repository contracts both depend on.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/discount"
)

// Sentinel errors for order operations.
var (
	ErrNotFound       = errors.New("order not found")
	ErrClientNotFound = errors.New("client not found")
	ErrEmptyItems     = errors.New("at least one item is required")
	// ErrStatusChanged is returned by a guarded status write when the row no
	// longer holds the status the caller validated against.
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// ProductNotFoundError indicates a requested product is missing or inactive.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found or inactive", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InsufficientStockError indicates a line item requests more units than the
// product has available.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

// InvalidTransitionError indicates a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// Order is a client's purchase with its immutable line items.
type Order struct {
	ID              string
	ClientID        string
	Number          string
	Date            time.Time
	Status          Status
	TotalAmount     decimal.Decimal
	ShippingAddress string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items  []LineItem
	Client ClientInfo
}

// ClientInfo carries the joined client display fields returned with an order.
type ClientInfo struct {
	FirstName string
	LastName  string
	Email     string
}

// LineItem is one product/quantity pairing within an order. UnitPrice is the
// undiscounted catalog price at order time; DiscountApplied is the per-unit
// reduction; Subtotal = (UnitPrice - DiscountApplied) * Quantity. Line items
// are never updated or deleted independently of their order.
type LineItem struct {
	ID              string
	OrderID         string
	ProductID       string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountApplied decimal.Decimal
	Subtotal        decimal.Decimal
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	ClientID        string
	Items           []ItemRequest
	ShippingAddress string
	Notes           string
}

// ItemRequest is one requested product/quantity pair.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// ProductSnapshot is a product read taken under a row lock inside the
// order-creation transaction: base price, derived availability, and the
// discount rules that may apply right now.
type ProductSnapshot struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Active    bool
	Available int
	Discounts []discount.Discount
}

// Tx is the transaction-scoped view the creation workflow runs against.
// Every read it serves comes from the same database snapshot, and locked
// product rows stay locked until the transaction ends.
type Tx interface {
	ClientExists(ctx context.Context, clientID string) (bool, error)
	// LockProduct locks the product row and returns its snapshot.
	// Returns a *ProductNotFoundError when the row is missing.
	LockProduct(ctx context.Context, productID string) (*ProductSnapshot, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertLineItems(ctx context.Context, items []LineItem) error
}

// ListFilter narrows List results.
type ListFilter struct {
	Status *Status
	Page   int
	Limit  int
}

// Store defines persistence operations for orders.
type Store interface {
	// InTx runs fn inside a single transaction. Serialization failures,
	// deadlocks, and order-number collisions are retried a bounded number
	// of times; fn must be safe to re-run from scratch.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	ListByClient(ctx context.Context, clientID string, page, limit int) ([]Order, int, error)
	// UpdateStatus persists a status change guarded by the status the caller
	// validated against: the write applies only while the row still holds
	// from, and returns ErrStatusChanged otherwise.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}
