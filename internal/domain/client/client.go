// Package client holds the client registry aggregate.
package client

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested client does not exist.
	ErrNotFound = errors.New("client not found")
	// ErrEmailTaken is returned when another client already uses the email.
	ErrEmailTaken = errors.New("a client with this email already exists")
	// ErrHasOrders is returned when deleting a client that owns orders.
	ErrHasOrders = errors.New("client has orders and cannot be deleted")
)

// Client is a store customer orders are placed for.
type Client struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	City      *string
	Country   *string
}

// ListFilter narrows List results. Search matches name and email.
type ListFilter struct {
	Search string
	Page   int
	Limit  int
}

// Repository defines persistence operations for clients.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Client, int, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, id string, patch Patch) (*Client, error)
	// Delete removes the client. It fails with ErrHasOrders when any order
	// references the client.
	Delete(ctx context.Context, id string) error
}
