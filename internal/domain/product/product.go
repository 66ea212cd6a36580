package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist or is inactive.
	ErrNotFound = errors.New("product not found")
	// ErrUnknownReference is returned when a write names a category, brand,
	// gender, color, or size id that does not exist.
	ErrUnknownReference = errors.New("unknown reference id")
)

// Product represents a catalog item.
//
// Quantity is the baseline stock level as originally stocked. The quantity
// actually available for sale is derived from order history, never stored:
// see StockSnapshot.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Active      bool
	Refs        Refs
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Refs holds the reference-data labels a product is classified by. A zero
// ID means the dimension is unset.
type Refs struct {
	CategoryID int
	Category   string
	BrandID    int
	Brand      string
	GenderID   int
	Gender     string
	ColorID    int
	Color      string
	SizeID     int
	Size       string
}

// View is a catalog read of a product with its derived availability and the
// price after any currently active discount.
type View struct {
	Product
	Available       int
	HasDiscount     bool
	DiscountedPrice decimal.Decimal
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	Active      *bool
	CategoryID  *int
	BrandID     *int
	GenderID    *int
	ColorID     *int
	SizeID      *int
}

// ListFilter narrows List results.
type ListFilter struct {
	Active *bool
	Page   int
	Limit  int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]View, int, error)
	GetByID(ctx context.Context, id string) (*View, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, patch Patch) (*View, error)
	Delete(ctx context.Context, id string) error
}
