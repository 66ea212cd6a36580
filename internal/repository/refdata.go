package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/webstore-backoffice/internal/domain/refdata"
)

// RefDataRepository implements refdata.Repository on PostgreSQL. Each Kind
// maps to its own table; the mapping below is the whitelist, since table
// names cannot be bound as query parameters.
type RefDataRepository struct {
	pool *pgxpool.Pool
}

// NewRefDataRepository creates a RefDataRepository.
func NewRefDataRepository(pool *pgxpool.Pool) *RefDataRepository {
	return &RefDataRepository{pool: pool}
}

var refTables = map[refdata.Kind]string{
	refdata.KindCategory: "categories",
	refdata.KindBrand:    "brands",
	refdata.KindGender:   "genders",
	refdata.KindColor:    "colors",
	refdata.KindSize:     "sizes",
}

func refTable(kind refdata.Kind) (string, error) {
	table, ok := refTables[kind]
	if !ok {
		return "", refdata.ErrUnknownKind
	}
	return table, nil
}

// List returns the dimension's entries ordered by name.
func (r *RefDataRepository) List(ctx context.Context, kind refdata.Kind) ([]refdata.Entry, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", table)
	}
	defer rows.Close()

	var out []refdata.Entry
	for rows.Next() {
		var e refdata.Entry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, errors.Wrapf(err, "scan %s", table)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts a new entry, letting the database assign the id.
func (r *RefDataRepository) Create(ctx context.Context, kind refdata.Kind, name string) (*refdata.Entry, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}

	e := refdata.Entry{Name: name}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO `+table+` (name) VALUES ($1) RETURNING id`, name,
	).Scan(&e.ID)
	if isUniqueViolation(err, "") {
		return nil, refdata.ErrNameTaken
	}
	if err != nil {
		return nil, errors.Wrapf(err, "insert into %s", table)
	}
	return &e, nil
}

// Rename changes an entry's name.
func (r *RefDataRepository) Rename(ctx context.Context, kind refdata.Kind, id int, name string) (*refdata.Entry, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}

	e := refdata.Entry{Name: name}
	err = r.pool.QueryRow(ctx,
		`UPDATE `+table+` SET name = $2 WHERE id = $1 RETURNING id`, id, name,
	).Scan(&e.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, refdata.ErrNotFound
	}
	if isUniqueViolation(err, "") {
		return nil, refdata.ErrNameTaken
	}
	if err != nil {
		return nil, errors.Wrapf(err, "update %s", table)
	}
	return &e, nil
}

// Delete removes an entry. Products referencing it block the delete.
func (r *RefDataRepository) Delete(ctx context.Context, kind refdata.Kind, id int) error {
	table, err := refTable(kind)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return refdata.ErrInUse
	}
	if err != nil {
		return errors.Wrapf(err, "delete from %s", table)
	}
	if tag.RowsAffected() == 0 {
		return refdata.ErrNotFound
	}
	return nil
}
