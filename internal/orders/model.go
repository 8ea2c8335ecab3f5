package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessPayment Status = "process_payment"
	StatusPaid           Status = "paid"
	StatusOnDelivery     Status = "on_delivery"
	StatusDelivered      Status = "delivered"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// transitions lists the legal successor states. Cancellation is reachable
// from every non-terminal state; completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:        {StatusProcessPayment, StatusCancelled},
	StatusProcessPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusOnDelivery, StatusCancelled},
	StatusOnDelivery:     {StatusDelivered, StatusCancelled},
	StatusDelivered:      {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a customer order. Total is derived from the persisted lines and
// the authoritative product prices, never from client input.
type Order struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customer_name"`
	Status       Status          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Channel      string          `json:"channel"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Lines        []Line          `json:"lines,omitempty"`
}

// Line is one order line item.
type Line struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// LineProduct resolves the product and linked inventory a line depends on.
type LineProduct struct {
	ProductID   int64
	Name        string
	Price       decimal.Decimal
	InventoryID int64
}

// ListFilter filters order listings.
type ListFilter struct {
	Status  Status
	Search  string
	Page    int
	PerPage int
}
