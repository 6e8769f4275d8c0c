package repositories

import (
	"errors"
	"fmt"
)

// InsufficientStockError reports a stock decrement that would drop below zero.
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Requested int
	Available int
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ItemID
	}
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", name, e.Requested, e.Available)
}

// AsInsufficientStock extracts an InsufficientStockError from the chain.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr, true
	}
	return nil, false
}

func asRepositoryError(err error, target *RepositoryError) bool {
	return errors.As(err, target)
}
