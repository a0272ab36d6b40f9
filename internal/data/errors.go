package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrCustomerNotFound is returned when no customer row matches the lookup.
	ErrCustomerNotFound = errors.New("customer not found")
)
