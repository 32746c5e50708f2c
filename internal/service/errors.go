// Package service contains the core business logic for the wine cellar:
// the inventory ledger engine, the image derivation pipeline, and the
// orchestration that ties them to persistence.
package service

import "errors"

// Sentinel errors classifying user-attributable failures. Handlers map
// these to 4xx responses with the message intact; anything else is
// logged in full and surfaced as a generic internal error.
var (
	// ErrInvalidInput marks malformed or out-of-range user input:
	// bad dates, non-positive bottle counts, zero-size crops,
	// undecodable images.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPayloadTooLarge marks an upload exceeding the configured
	// bound, whether detected from the declared length or from the
	// bytes actually read.
	ErrPayloadTooLarge = errors.New("payload too large")
)
