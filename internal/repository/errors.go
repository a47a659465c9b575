// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// each one to its proper HTTP status instead of collapsing everything
// into a 500.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a reservation that still has payments. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrOpenIntent is returned when a payment intent is requested for a
// reservation that already has a pending payment. The conflict is
// detected under a row lock so two concurrent intent requests cannot
// both succeed.
var ErrOpenIntent = errors.New("reservation already has an open payment intent")

// ErrInvalidTransition is returned when a status update does not match
// the required prior state, e.g. completing a commission that was never
// marked processed. Handlers translate this into an HTTP 400 response.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNoActiveBlock is returned by unblock when the user has no block
// record currently in force.
var ErrNoActiveBlock = errors.New("no active block for user")

// ErrNoOwner is returned when commission attribution cannot find any
// in-force ownership link for a property. The condition is recoverable
// and must be logged loudly rather than silently skipped.
var ErrNoOwner = errors.New("property has no in-force owner")
