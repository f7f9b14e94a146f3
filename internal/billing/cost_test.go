package billing

import (
    "testing"
    "time"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestComputeMinimumCharge(t *testing.T) {
    // 45 minutes is under the one-hour minimum, so the total is exactly
    // one hour at the lot rate.
    b := Compute(t0, 12.50, t0.Add(45*time.Minute))
    if b.TotalCost != 12.50 {
        t.Fatalf("expected minimum charge 12.50, got %v", b.TotalCost)
    }
    if b.AdditionalHours != 0 || b.AdditionalCost != 0 {
        t.Fatalf("no additional charge expected, got %+v", b)
    }
    if b.TotalHours != 0.75 {
        t.Fatalf("expected raw duration 0.75h, got %v", b.TotalHours)
    }
}

func TestComputeFractionalHours(t *testing.T) {
    // 2.5 hours at rate p bills p for the first hour plus 1.5*p.
    b := Compute(t0, 10, t0.Add(150*time.Minute))
    if b.BaseCost != 10 {
        t.Fatalf("expected base cost 10, got %v", b.BaseCost)
    }
    if b.AdditionalHours != 1.5 || b.AdditionalCost != 15 {
        t.Fatalf("expected 1.5 additional hours at 15, got %+v", b)
    }
    if b.TotalCost != 25 {
        t.Fatalf("expected total 25, got %v", b.TotalCost)
    }
}

func TestComputeRoundsAtOutputOnly(t *testing.T) {
    // 100 minutes at 9.99/h: 40 extra minutes cost 6.66 after rounding,
    // while the total rounds the unrounded sum (9.99 + 6.6600) once.
    b := Compute(t0, 9.99, t0.Add(100*time.Minute))
    if b.AdditionalCost != 6.66 {
        t.Fatalf("expected additional cost 6.66, got %v", b.AdditionalCost)
    }
    if b.TotalCost != 16.65 {
        t.Fatalf("expected total 16.65, got %v", b.TotalCost)
    }
}

func TestComputeZeroRate(t *testing.T) {
    b := Compute(t0, 0, t0.Add(5*time.Hour))
    if b.BaseCost != 0 || b.AdditionalCost != 0 || b.TotalCost != 0 {
        t.Fatalf("free lot must yield zero cost, got %+v", b)
    }
    if b.TotalHours != 5 {
        t.Fatalf("duration still reported for free lots, got %v", b.TotalHours)
    }
}

func TestComputeClampsNegativeDuration(t *testing.T) {
    // Clock skew: end before start must not bill negative hours.
    b := Compute(t0, 8, t0.Add(-10*time.Minute))
    if b.TotalHours != 0 {
        t.Fatalf("expected clamped duration 0, got %v", b.TotalHours)
    }
    if b.TotalCost != 8 {
        t.Fatalf("minimum charge still applies, got %v", b.TotalCost)
    }
}

func TestLiveCostGrowsWithTime(t *testing.T) {
    early := Compute(t0, 10, t0.Add(10*time.Minute))
    late := Compute(t0, 10, t0.Add(80*time.Minute))
    if late.TotalCost <= early.TotalCost {
        t.Fatalf("cost must accrue over time: %v then %v", early.TotalCost, late.TotalCost)
    }
}

func TestInitialIsOneHourCharge(t *testing.T) {
    b := Initial(t0, 7.25)
    if b.TotalCost != 7.25 || b.BaseCost != 7.25 {
        t.Fatalf("initial breakdown must equal the one-hour charge, got %+v", b)
    }
    if b.TotalHours != 1 {
        t.Fatalf("initial breakdown covers one hour, got %v", b.TotalHours)
    }
    if b.CalculationTime != t0.Format(time.RFC3339) {
        t.Fatalf("unexpected calculation time %q", b.CalculationTime)
    }
}

func TestComputeIsDeterministic(t *testing.T) {
    end := t0.Add(3*time.Hour + 17*time.Minute)
    a := Compute(t0, 4.40, end)
    b := Compute(t0, 4.40, end)
    if a != b {
        t.Fatalf("same inputs must produce the same breakdown: %+v vs %+v", a, b)
    }
}
