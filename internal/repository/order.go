package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/order"
)

// stockCountingStatuses is inlined into queries that derive availability.
// Keep in sync with order.StockCountingStatuses.
const stockCountingStatuses = `('confirmed', 'processing', 'shipped', 'delivered')`

// OrderRepository implements order.Store on PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InTx runs fn against a transaction-scoped view with bounded retries.
func (r *OrderRepository) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

// orderTx serves the order-creation workflow from a single transaction.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) ClientExists(ctx context.Context, clientID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, clientID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check client exists")
	}
	return exists, nil
}

// LockProduct takes a FOR UPDATE lock on the product row, then reads the
// derived availability and the currently applicable discount rules. The lock
// serializes concurrent order creation per product, so two orders cannot
// both pass the stock check against the same units.
func (t *orderTx) LockProduct(ctx context.Context, productID string) (*order.ProductSnapshot, error) {
	var snap order.ProductSnapshot
	err := t.tx.QueryRow(ctx, `
		SELECT p.id, p.name, p.price, p.is_active,
		       p.quantity - COALESCE((
		           SELECT SUM(oi.quantity)
		           FROM order_items oi
		           JOIN orders o ON o.id = oi.order_id
		           WHERE oi.product_id = p.id
		             AND o.status IN `+stockCountingStatuses+`
		       ), 0) AS available
		FROM products p
		WHERE p.id = $1
		FOR UPDATE OF p`,
		productID,
	).Scan(&snap.ID, &snap.Name, &snap.Price, &snap.Active, &snap.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &order.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock product")
	}

	rows, err := t.tx.Query(ctx, `
		SELECT id, product_id, discount_percentage, discount_amount,
		       start_date, end_date, is_active, COALESCE(created_by::text, ''), created_at
		FROM discounts
		WHERE product_id = $1
		  AND is_active
		  AND now() BETWEEN start_date AND end_date`,
		productID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query active discounts")
	}
	snap.Discounts, err = scanDiscounts(rows)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (id, client_id, order_number, order_date, status,
		                    total_amount, shipping_address, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid)`,
		o.ID, o.ClientID, o.Number, o.Date, o.Status,
		o.TotalAmount, o.ShippingAddress, o.Notes, o.CreatedBy,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (t *orderTx) InsertLineItems(ctx context.Context, items []order.LineItem) error {
	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, line_no,
			                         quantity, unit_price, discount_applied, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.OrderID, item.ProductID, i,
			item.Quantity, item.UnitPrice, item.DiscountApplied, item.Subtotal,
		)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "insert line items")
	}
	return nil
}

const orderColumns = `
	o.id, o.client_id, o.order_number, o.order_date, o.status, o.total_amount,
	o.shipping_address, o.notes, COALESCE(o.created_by::text, ''),
	o.created_at, o.updated_at,
	c.first_name, c.last_name, c.email`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.ClientID, &o.Number, &o.Date, &o.Status, &o.TotalAmount,
		&o.ShippingAddress, &o.Notes, &o.CreatedBy,
		&o.CreatedAt, &o.UpdatedAt,
		&o.Client.FirstName, &o.Client.LastName, &o.Client.Email,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID returns the order with its line items, joined with client and
// product display fields.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}

	o.Items, err = r.queryItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) queryItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name,
		       oi.quantity, oi.unit_price, oi.discount_applied, oi.subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.line_no`,
		orderID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query line items")
	}
	defer rows.Close()

	var items []order.LineItem
	for rows.Next() {
		var it order.LineItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.DiscountApplied, &it.Subtotal,
		); err != nil {
			return nil, errors.Wrap(err, "scan line item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List returns orders matching the filter, newest first, without line items.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, int, error) {
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders o
		WHERE $1::text IS NULL OR o.status = $1`,
		status,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE $1::text IS NULL OR o.status = $1
		ORDER BY o.order_date DESC
		LIMIT $2 OFFSET $3`,
		status, f.Limit, (f.Page-1)*f.Limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByClient returns the client's orders, newest first, without line items.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID string, page, limit int) ([]order.Order, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE client_id = $1`, clientID,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count client orders")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.client_id = $1
		ORDER BY o.order_date DESC
		LIMIT $2 OFFSET $3`,
		clientID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query client orders")
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateStatus persists a status change guarded by the status the caller
// validated against. Transition validity is the service's concern; the guard
// only ensures a concurrent change cannot slip past that validation.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "check order exists")
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrStatusChanged
}

func scanDiscounts(rows pgx.Rows) ([]discount.Discount, error) {
	defer rows.Close()

	var out []discount.Discount
	for rows.Next() {
		var d discount.Discount
		if err := rows.Scan(
			&d.ID, &d.ProductID, &d.Percentage, &d.Amount,
			&d.StartDate, &d.EndDate, &d.Active, &d.CreatedBy, &d.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan discount")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
