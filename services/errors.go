package services

import "errors"

var (
	ErrNotAuthenticated   = errors.New("no customer identity resolved")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrVendorNotOnboarded = errors.New("vendor is not configured for payments")
	ErrAllVendorsFailed   = errors.New("no payment intent could be created")
	ErrProcessor          = errors.New("payment processor error")
	ErrAccountNotFound    = errors.New("vendor payment account not found")
	ErrBadEventMetadata   = errors.New("payment event metadata is malformed")
)
