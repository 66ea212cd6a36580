package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/webstore-backoffice/internal/domain/client"
)

// ClientRepository implements client.Repository on PostgreSQL.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = `
	id, first_name, last_name, email, phone, address, city, country,
	created_at, updated_at`

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.Country, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns clients matching the filter. Search matches first name, last
// name, and email, case-insensitively.
func (r *ClientRepository) List(ctx context.Context, f client.ListFilter) ([]client.Client, int, error) {
	pattern := "%" + f.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM clients
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1`,
		pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count clients")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		pattern, f.Limit, (f.Page-1)*f.Limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query clients")
	}
	defer rows.Close()

	var clients []client.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan client")
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// GetByID returns one client.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*client.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, client.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query client")
	}
	return c, nil
}

// Create persists a new client.
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, first_name, last_name, email, phone, address, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.Country,
	)
	if isUniqueViolation(err, "clients_email_key") {
		return client.ErrEmailTaken
	}
	if err != nil {
		return errors.Wrap(err, "insert client")
	}
	return nil
}

// Update applies a partial update and returns the refreshed row.
func (r *ClientRepository) Update(ctx context.Context, id string, patch client.Patch) (*client.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `
		UPDATE clients SET
		    first_name = COALESCE($2, first_name),
		    last_name  = COALESCE($3, last_name),
		    email      = COALESCE($4, email),
		    phone      = COALESCE($5, phone),
		    address    = COALESCE($6, address),
		    city       = COALESCE($7, city),
		    country    = COALESCE($8, country),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns,
		id,
		patch.FirstName, patch.LastName, patch.Email, patch.Phone,
		patch.Address, patch.City, patch.Country,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, client.ErrNotFound
	}
	if isUniqueViolation(err, "clients_email_key") {
		return nil, client.ErrEmailTaken
	}
	if err != nil {
		return nil, errors.Wrap(err, "update client")
	}
	return c, nil
}

// Delete removes a client that owns no orders.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	var hasOrders bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE client_id = $1)`, id,
	).Scan(&hasOrders)
	if err != nil {
		return errors.Wrap(err, "check client orders")
	}
	if hasOrders {
		return client.ErrHasOrders
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return client.ErrHasOrders
		}
		return errors.Wrap(err, "delete client")
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}
