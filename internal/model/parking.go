package model

import "time"

// SpotStatus is the closed set of states a parking spot can be in.  The
// single-character values mirror the parking_spots.status column.
type SpotStatus string

const (
    SpotAvailable SpotStatus = "A" // free for allocation
    SpotOccupied  SpotStatus = "O" // held by exactly one active reservation
)

// ParkingLot represents a physical parking facility.  A lot owns a fixed
// set of ParkingSpots numbered 1..NumberOfSpots; the spot rows are created
// and removed together with the lot so the declared count always matches
// the actual rows.
//
// Fields:
//  ID                – primary key identifier.
//  PrimeLocationName – display name of the lot.
//  Price             – hourly rate charged for a spot in this lot.
//  Address           – street address.
//  PinCode           – postal code.
//  NumberOfSpots     – declared spot count, kept consistent with spot rows.
//  CreatedAt         – creation timestamp.
type ParkingLot struct {
    ID                uint64    `json:"id"`                  // parking_lots.id
    PrimeLocationName string    `json:"prime_location_name"` // parking_lots.prime_location_name
    Price             float64   `json:"price"`               // parking_lots.price
    Address           string    `json:"address"`             // parking_lots.address
    PinCode           string    `json:"pin_code"`            // parking_lots.pin_code
    NumberOfSpots     int       `json:"number_of_spots"`     // parking_lots.number_of_spots
    CreatedAt         time.Time `json:"created_at"`          // parking_lots.created_at
}

// ParkingSpot is one allocatable space within a lot.  SpotNumber is unique
// within the lot.  A spot is Occupied exactly when it has one active
// reservation; the allocator flips the status inside the same transaction
// that creates or closes the reservation.
type ParkingSpot struct {
    ID         uint64     `json:"id"`          // parking_spots.id
    LotID      uint64     `json:"lot_id"`      // parking_spots.lot_id
    SpotNumber int        `json:"spot_number"` // parking_spots.spot_number
    Status     SpotStatus `json:"status"`      // parking_spots.status
}
