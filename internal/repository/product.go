package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/product"
)

// ProductRepository implements product.Repository on PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// productViewColumns selects the product row, its reference-data labels, the
// derived availability, and the single discount rule in effect right now.
// The lateral subquery mirrors the read-time resolution order: latest start
// date wins, created_at breaks ties.
const productViewColumns = `
	p.id, p.name, p.description, p.price, p.quantity, p.is_active,
	p.created_at, p.updated_at,
	COALESCE(p.category_id, 0), COALESCE(cat.name, ''),
	COALESCE(p.brand_id, 0), COALESCE(b.name, ''),
	COALESCE(p.gender_id, 0), COALESCE(g.name, ''),
	COALESCE(p.color_id, 0), COALESCE(col.name, ''),
	COALESCE(p.size_id, 0), COALESCE(s.name, ''),
	p.quantity - COALESCE((
	    SELECT SUM(oi.quantity)
	    FROM order_items oi
	    JOIN orders o ON o.id = oi.order_id
	    WHERE oi.product_id = p.id
	      AND o.status IN ` + stockCountingStatuses + `
	), 0) AS available,
	d.discount_percentage, d.discount_amount`

const productViewJoins = `
	LEFT JOIN categories cat ON cat.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN genders g ON g.id = p.gender_id
	LEFT JOIN colors col ON col.id = p.color_id
	LEFT JOIN sizes s ON s.id = p.size_id
	LEFT JOIN LATERAL (
	    SELECT discount_percentage, discount_amount
	    FROM discounts
	    WHERE product_id = p.id
	      AND is_active
	      AND now() BETWEEN start_date AND end_date
	    ORDER BY start_date DESC, created_at DESC
	    LIMIT 1
	) d ON TRUE`

func scanProductView(row pgx.Row) (*product.View, error) {
	var (
		v      product.View
		pct    *decimal.Decimal
		amount *decimal.Decimal
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.Description, &v.Price, &v.Quantity, &v.Active,
		&v.CreatedAt, &v.UpdatedAt,
		&v.Refs.CategoryID, &v.Refs.Category,
		&v.Refs.BrandID, &v.Refs.Brand,
		&v.Refs.GenderID, &v.Refs.Gender,
		&v.Refs.ColorID, &v.Refs.Color,
		&v.Refs.SizeID, &v.Refs.Size,
		&v.Available,
		&pct, &amount,
	)
	if err != nil {
		return nil, err
	}

	v.DiscountedPrice = v.Price
	if pct != nil || amount != nil {
		v.HasDiscount = true
		v.DiscountedPrice = discount.EffectiveUnitPrice(v.Price, &discount.Discount{
			Percentage: pct,
			Amount:     amount,
		})
	}
	return &v, nil
}

// List returns catalog views matching the filter.
func (r *ProductRepository) List(ctx context.Context, f product.ListFilter) ([]product.View, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products p
		WHERE $1::boolean IS NULL OR p.is_active = $1`,
		f.Active,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+productViewColumns+`
		FROM products p`+productViewJoins+`
		WHERE $1::boolean IS NULL OR p.is_active = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`,
		f.Active, f.Limit, (f.Page-1)*f.Limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	var views []product.View
	for rows.Next() {
		v, err := scanProductView(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan product")
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetByID returns one catalog view.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.View, error) {
	v, err := scanProductView(r.pool.QueryRow(ctx, `
		SELECT `+productViewColumns+`
		FROM products p`+productViewJoins+`
		WHERE p.id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return v, nil
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, description, price, quantity, is_active,
		                      category_id, brand_id, gender_id, color_id, size_id)
		VALUES ($1, $2, $3, $4, $5, $6,
		        NULLIF($7, 0), NULLIF($8, 0), NULLIF($9, 0), NULLIF($10, 0), NULLIF($11, 0))`,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Active,
		p.Refs.CategoryID, p.Refs.BrandID, p.Refs.GenderID, p.Refs.ColorID, p.Refs.SizeID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return product.ErrUnknownReference
		}
		return errors.Wrap(err, "insert product")
	}
	return nil
}

// Update applies a partial update and returns the refreshed view. Nil patch
// fields keep the current column value.
func (r *ProductRepository) Update(ctx context.Context, id string, patch product.Patch) (*product.View, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET
		    name        = COALESCE($2, name),
		    description = COALESCE($3, description),
		    price       = COALESCE($4, price),
		    quantity    = COALESCE($5, quantity),
		    is_active   = COALESCE($6, is_active),
		    category_id = COALESCE($7, category_id),
		    brand_id    = COALESCE($8, brand_id),
		    gender_id   = COALESCE($9, gender_id),
		    color_id    = COALESCE($10, color_id),
		    size_id     = COALESCE($11, size_id),
		    updated_at  = now()
		WHERE id = $1`,
		id,
		patch.Name, patch.Description, patch.Price, patch.Quantity, patch.Active,
		patch.CategoryID, patch.BrandID, patch.GenderID, patch.ColorID, patch.SizeID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, product.ErrUnknownReference
		}
		return nil, errors.Wrap(err, "update product")
	}
	if tag.RowsAffected() == 0 {
		return nil, product.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete deactivates the product. Rows are kept so historical orders retain
// their product references.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "deactivate product")
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}
