package pettycash

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tags the direction of a petty cash entry.
type EntryType string

const (
	// TypeDebit adds money to the cash box.
	TypeDebit EntryType = "debit"
	// TypeCredit takes money out of the cash box.
	TypeCredit EntryType = "credit"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Entry is one append-only petty cash movement.
type Entry struct {
	ID          int64           `json:"id"`
	Type        EntryType       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ActorID     *int64          `json:"actor_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListFilter filters entry listings.
type ListFilter struct {
	Type    EntryType
	Page    int
	PerPage int
}

// ErrInsufficientBalance rejects a credit exceeding the current balance.
var ErrInsufficientBalance = errors.New("pettycash: saldo tidak mencukupi")
