// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service and the handlers to distinguish between failure
// scenarios without string matching. Absent rows are reported as
// sql.ErrNoRows unless a more specific sentinel below applies.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else, such as releasing another user's
// reservation. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// dependent state: deleting a lot with occupied spots, or shrinking a
// lot below its occupied spot count. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrLotNotFound is returned when a referenced parking lot does not exist.
var ErrLotNotFound = errors.New("parking lot not found")

// ErrNoAvailableSpot is returned by the allocator when every spot in the
// lot is occupied, or when a concurrent claim won the race for the last
// available spot. No state is mutated on this path.
var ErrNoAvailableSpot = errors.New("no available spot")

// ErrActiveReservationExists is returned when a user who already holds an
// active reservation attempts to reserve another spot.
var ErrActiveReservationExists = errors.New("user already has an active reservation")

// ErrAlreadyReleased is returned on a second release of the same
// reservation. Release is not repeatable; the terminal state is absorbing
// and the second call changes nothing.
var ErrAlreadyReleased = errors.New("reservation already released")

// ErrUserExists is returned when registration collides with an existing
// username or email.
var ErrUserExists = errors.New("username or email already exists")
