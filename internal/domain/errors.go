// Package domain defines the storefront's shared types and error taxonomy.
package domain

import "errors"

// Expected domain outcomes. These are not faults: callers translate them into
// a denial message for the user rather than an internal error.
var (
	// ErrStockGone means the selected account was sold between selection and
	// commit, or never existed.
	ErrStockGone = errors.New("account no longer in stock")
	// ErrUserNotFound means the user has never registered with /start.
	ErrUserNotFound = errors.New("user is not registered")
	// ErrInsufficientBalance means the user's balance does not cover the price.
	ErrInsufficientBalance = errors.New("balance is insufficient")
	// ErrNoPendingPayment means the user has no outstanding deposit request.
	ErrNoPendingPayment = errors.New("no pending payment")
	// ErrInvalidNominal means the requested deposit amount is not a positive
	// integer within the configured bounds.
	ErrInvalidNominal = errors.New("invalid deposit nominal")
)
