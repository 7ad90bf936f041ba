package storage

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrItemNotFound     = errors.New("order item not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrClientNotFound   = errors.New("client not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSessionNotFound  = errors.New("session not found")

	// ErrDuplicate maps unique-key violations on adjacent CRUD resources
	// (employee email, product code).
	ErrDuplicate = errors.New("duplicate key")
)
