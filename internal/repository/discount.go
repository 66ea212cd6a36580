package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/product"
)

// DiscountRepository implements discount.Repository on PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository creates a DiscountRepository.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

const discountColumns = `
	id, product_id, discount_percentage, discount_amount,
	start_date, end_date, is_active, COALESCE(created_by::text, ''), created_at`

func scanDiscount(row pgx.Row) (*discount.Discount, error) {
	var d discount.Discount
	err := row.Scan(
		&d.ID, &d.ProductID, &d.Percentage, &d.Amount,
		&d.StartDate, &d.EndDate, &d.Active, &d.CreatedBy, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns discount rules matching the filter, newest first.
func (r *DiscountRepository) List(ctx context.Context, f discount.ListFilter) ([]discount.Discount, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM discounts
		WHERE $1::boolean IS NULL OR is_active = $1`,
		f.Active,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count discounts")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+discountColumns+`
		FROM discounts
		WHERE $1::boolean IS NULL OR is_active = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		f.Active, f.Limit, (f.Page-1)*f.Limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query discounts")
	}

	discounts, err := scanDiscounts(rows)
	if err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

// GetByID returns one discount rule.
func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*discount.Discount, error) {
	d, err := scanDiscount(r.pool.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, discount.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query discount")
	}
	return d, nil
}

// ListByProduct returns the product's discount rules, newest window first.
func (r *DiscountRepository) ListByProduct(ctx context.Context, productID string, active *bool) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+discountColumns+`
		FROM discounts
		WHERE product_id = $1
		  AND ($2::boolean IS NULL OR is_active = $2)
		ORDER BY start_date DESC, created_at DESC`,
		productID, active,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query product discounts")
	}
	return scanDiscounts(rows)
}

// Create persists a new rule. The product must exist and the window must not
// overlap another active rule for the same product; both checks run in the
// same transaction as the insert so concurrent writers cannot slip past.
func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var productID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM products WHERE id = $1 FOR UPDATE`, d.ProductID,
		).Scan(&productID)
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "lock product")
		}

		var overlaps bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
			    SELECT 1 FROM discounts
			    WHERE product_id = $1
			      AND is_active
			      AND start_date <= $3
			      AND end_date >= $2
			)`,
			d.ProductID, d.StartDate, d.EndDate,
		).Scan(&overlaps)
		if err != nil {
			return errors.Wrap(err, "check discount overlap")
		}
		if overlaps {
			return discount.ErrOverlap
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO discounts (id, product_id, discount_percentage, discount_amount,
			                       start_date, end_date, is_active, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid)`,
			d.ID, d.ProductID, d.Percentage, d.Amount,
			d.StartDate, d.EndDate, d.Active, d.CreatedBy,
		)
		if err != nil {
			return errors.Wrap(err, "insert discount")
		}
		return nil
	})
}

// Deactivate ends the rule immediately.
func (r *DiscountRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE discounts SET is_active = FALSE WHERE id = $1`, id,
	)
	if err != nil {
		return errors.Wrap(err, "deactivate discount")
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}
