package model

// ReservationStatus enumerates the lifecycle phases of a reservation.
// There are exactly two: active and completed.  Completed is absorbing;
// once a reservation is released it never transitions again.
type ReservationStatus string

const (
    ReservationActive    ReservationStatus = "active"
    ReservationCompleted ReservationStatus = "completed"
)

// Terminal reports whether the status is a final state.
func (s ReservationStatus) Terminal() bool { return s == ReservationCompleted }
