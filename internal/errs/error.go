// Package errs defines the business error kinds the handlers map to HTTP
// status codes. Each kind carries enough context for an actionable message.
package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrItemInUse = errors.New("item has active loans or open reservations")
	ErrUserName  = errors.New("username is required")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InsufficientCapacityError: the requested date range cannot hold the
// requested quantity given already-committed reservations.
type InsufficientCapacityError struct {
	ItemName  string
	Requested int
	Available int
	StartDate time.Time
	EndDate   time.Time
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity for %q: requested %d, available %d between %s and %s",
		e.ItemName, e.Requested, e.Available,
		e.StartDate.Format(time.DateOnly), e.EndDate.Format(time.DateOnly))
}

// InsufficientAvailableError: the checkout guard found fewer units on the
// shelf than requested.
type InsufficientAvailableError struct {
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf("insufficient available for %q: requested %d, available %d",
		e.ItemName, e.Requested, e.Available)
}

type AlreadyReturnedError struct {
	LoanUid string
}

func (e *AlreadyReturnedError) Error() string {
	return fmt.Sprintf("loan %s is already returned", e.LoanUid)
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid reservation transition %s -> %s", e.From, e.To)
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
