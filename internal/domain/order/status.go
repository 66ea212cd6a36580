package order

// Status is an order's position in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions is the forward edge set of the status state machine:
//
//	pending -> confirmed -> processing -> shipped -> delivered
//
// plus cancellation from any of {pending, confirmed, processing}.
// shipped, delivered, and cancelled admit no further transitions except
// shipped -> delivered.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// StockCountingStatuses are the statuses whose line items reserve stock.
// Pending orders deliberately do not reserve stock: several pending orders
// may be taken against the same units, and confirmation order decides which
// one wins.
var StockCountingStatuses = []Status{
	StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered,
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s Status) Cancellable() bool {
	return CanTransition(s, StatusCancelled)
}
