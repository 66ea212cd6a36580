// Package refdata manages the catalog dimensions products are classified
// by: categories, brands, genders, colors, and sizes. All five behave
// identically, so one repository serves them keyed by Kind.
package refdata

import (
	"context"

	"github.com/go-faster/errors"
)

// Kind selects one reference-data dimension.
type Kind string

const (
	KindCategory Kind = "categories"
	KindBrand    Kind = "brands"
	KindGender   Kind = "genders"
	KindColor    Kind = "colors"
	KindSize     Kind = "sizes"
)

// Kinds lists every dimension.
var Kinds = []Kind{KindCategory, KindBrand, KindGender, KindColor, KindSize}

var (
	// ErrNotFound is returned when a requested entry does not exist.
	ErrNotFound = errors.New("reference entry not found")
	// ErrNameTaken is returned when the name already exists in the dimension.
	ErrNameTaken = errors.New("a reference entry with this name already exists")
	// ErrInUse is returned when a delete would orphan existing products.
	ErrInUse = errors.New("reference entry is used by existing products")
	// ErrUnknownKind is returned for a dimension name that is not one of Kinds.
	ErrUnknownKind = errors.New("unknown reference data kind")
)

// ParseKind validates a dimension name taken from a request path.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// Entry is one reference row.
type Entry struct {
	ID   int
	Name string
}

// Repository defines persistence operations for reference data.
type Repository interface {
	List(ctx context.Context, kind Kind) ([]Entry, error)
	Create(ctx context.Context, kind Kind, name string) (*Entry, error)
	Rename(ctx context.Context, kind Kind, id int, name string) (*Entry, error)
	Delete(ctx context.Context, kind Kind, id int) error
}
