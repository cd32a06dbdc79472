// internal/services/errors.go
package services

import "errors"

// Sentinel errors surfaced by the services. Handlers map them to HTTP
// statuses with errors.Is; anything else is treated as a data-access
// failure and wrapped with context.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is no longer available")
	ErrInsufficientStock  = errors.New("not enough quantity available")

	ErrUnauthorized = errors.New("not allowed to access this resource")

	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email is already registered")
)
