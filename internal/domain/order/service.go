package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/discount"
)

// Service encapsulates the order workflow: transactional creation, status
// transitions, and reads.
type Service struct {
	store Store

	now       func() time.Time
	newNumber func() string
}

// NewService creates an order Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{
		store:     store,
		now:       time.Now,
		newNumber: NewNumber,
	}
}

// Create runs the order-creation workflow for the given actor. The whole
// sequence executes inside one database transaction: the client check, every
// product's locked stock read and discount resolution, and the atomic insert
// of the order with its line items. Any failure rolls the transaction back,
// so a partial order is never visible.
func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	var orderID string
	err := s.store.InTx(ctx, func(tx Tx) error {
		ok, err := tx.ClientExists(ctx, req.ClientID)
		if err != nil {
			return errors.Wrap(err, "check client")
		}
		if !ok {
			return ErrClientNotFound
		}

		now := s.now()
		o := &Order{
			// Fresh IDs and order number on every attempt: InTx may re-run
			// the whole function after a serialization or number conflict.
			ID:              uuid.New().String(),
			ClientID:        req.ClientID,
			Number:          s.newNumber(),
			Date:            now,
			Status:          StatusPending,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
			CreatedBy:       actorID,
		}

		total := decimal.Zero
		items := make([]LineItem, 0, len(req.Items))
		for _, item := range req.Items {
			snap, err := tx.LockProduct(ctx, item.ProductID)
			if err != nil {
				return errors.Wrapf(err, "lock product %s", item.ProductID)
			}
			if !snap.Active {
				return &ProductNotFoundError{ProductID: item.ProductID}
			}
			if item.Quantity > snap.Available {
				return &InsufficientStockError{
					ProductID: snap.ID,
					Name:      snap.Name,
					Available: snap.Available,
					Requested: item.Quantity,
				}
			}

			rule := discount.Resolve(snap.Discounts, now)
			effective := discount.EffectiveUnitPrice(snap.Price, rule)
			applied := snap.Price.Sub(effective)
			subtotal := effective.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)

			items = append(items, LineItem{
				ID:              uuid.New().String(),
				OrderID:         o.ID,
				ProductID:       snap.ID,
				Quantity:        item.Quantity,
				UnitPrice:       snap.Price,
				DiscountApplied: applied,
				Subtotal:        subtotal,
			})
			total = total.Add(subtotal)
		}

		o.TotalAmount = total.Round(2)

		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.InsertLineItems(ctx, items); err != nil {
			return errors.Wrap(err, "insert line items")
		}

		orderID = o.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Re-read outside the transaction to pick up the joined client and
	// product display fields.
	created, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch created order")
	}
	return created, nil
}

// Get returns an order with its line items and joined display fields.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

// List returns a page of orders, optionally filtered by status, with the
// total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	return s.store.List(ctx, f)
}

// ListByClient returns a page of the client's orders with the total count.
func (s *Service) ListByClient(ctx context.Context, clientID string, page, limit int) ([]Order, int, error) {
	return s.store.ListByClient(ctx, clientID, page, limit)
}

// UpdateStatus moves an order to a new status. Every change, including the
// admin path, is validated against the transition graph.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	return s.transition(ctx, id, to, func(from Status) bool {
		return CanTransition(from, to)
	})
}

// Cancel cancels an order. Allowed only while the order is in
// {pending, confirmed, processing}; shipped, delivered, and cancelled
// orders are frozen.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	return s.transition(ctx, id, StatusCancelled, func(from Status) bool {
		return from.Cancellable()
	})
}

const transitionAttempts = 3

// transition runs the read-validate-write sequence for a status change. The
// write is guarded by the status it was validated against, so a concurrent
// change cannot slip past validation; on a lost race the sequence re-runs
// against the fresh status.
func (s *Service) transition(ctx context.Context, id string, to Status, allowed func(from Status) bool) (*Order, error) {
	for range transitionAttempts {
		o, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !allowed(o.Status) {
			return nil, &InvalidTransitionError{From: o.Status, To: to}
		}

		err = s.store.UpdateStatus(ctx, id, o.Status, to)
		if errors.Is(err, ErrStatusChanged) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "update status")
		}
		return s.store.GetByID(ctx, id)
	}
	return nil, ErrStatusChanged
}
