// Package billing implements the parking cost calculator.  The
// calculation is a pure function of the reservation start time, the lot's
// hourly rate and an end time; it never touches storage, so it can be
// evaluated repeatedly against an open reservation to report live accrued
// cost and is only persisted when the reservation is released.
package billing

import (
    "math"
    "time"
)

// baseHours is the flat minimum charged for every reservation.  Parking
// for any duration up to one hour costs exactly one hour at the lot rate.
const baseHours = 1.0

// Breakdown is the itemized cost record stored with each reservation and
// returned to clients.  Monetary values are rounded to two decimal places
// at construction; intermediate arithmetic is not rounded.
type Breakdown struct {
    BaseCost        float64 `json:"base_cost"`
    HourlyRate      float64 `json:"hourly_rate"`
    TotalHours      float64 `json:"total_hours"`
    AdditionalHours float64 `json:"additional_hours"`
    AdditionalCost  float64 `json:"additional_cost"`
    TotalCost       float64 `json:"total_cost"`
    CalculationTime string  `json:"calculation_time"`
}

// Compute returns the cost breakdown for parking from start until end at
// the given hourly rate.  The duration may be fractional.  Clock skew
// producing an end before start clamps the duration to zero rather than
// billing a negative amount.  A zero rate is legal (free lot) and yields
// an all-zero breakdown.
func Compute(start time.Time, hourlyRate float64, end time.Time) Breakdown {
    duration := end.Sub(start).Hours()
    if duration < 0 {
        duration = 0
    }

    baseCost := hourlyRate * baseHours
    additionalHours := math.Max(0, duration-baseHours)
    additionalCost := additionalHours * hourlyRate

    return Breakdown{
        BaseCost:        round2(baseCost),
        HourlyRate:      hourlyRate,
        TotalHours:      round2(duration),
        AdditionalHours: round2(additionalHours),
        AdditionalCost:  round2(additionalCost),
        TotalCost:       round2(baseCost + additionalCost),
        CalculationTime: end.UTC().Format(time.RFC3339),
    }
}

// Initial returns the breakdown stored when a reservation is created: the
// minimum one-hour charge at the lot rate.  It gives live queries a cost
// basis before the first recomputation.
func Initial(start time.Time, hourlyRate float64) Breakdown {
    b := Compute(start, hourlyRate, start)
    b.TotalHours = baseHours
    b.CalculationTime = start.UTC().Format(time.RFC3339)
    return b
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
