package service

import (
    "context"
    "database/sql"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/mfarhadi/parkwise/internal/repository"
)

type countingCache struct{ invalidations int }

func (c *countingCache) Invalidate(ctx context.Context) { c.invalidations++ }

func newTestService(t *testing.T) (*ReservationService, sqlmock.Sqlmock, *countingCache) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    cache := &countingCache{}
    svc := NewReservationService(db,
        repository.NewSpotRepo(db),
        repository.NewReservationRepo(db),
        repository.NewLotRepo(db),
        cache)
    svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
    return svc, mock, cache
}

func TestReserveClaimsLowestSpot(t *testing.T) {
    svc, mock, cache := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM reservations WHERE user_id = \? AND status = 'active'`).
        WithArgs(uint64(7)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(`SELECT id, prime_location_name, price, address, pin_code, number_of_spots, created_at`).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "prime_location_name", "price", "address", "pin_code", "number_of_spots", "created_at"}).
            AddRow(3, "Central", 12.5, "1 Main St", "10001", 20, time.Now()))
    mock.ExpectQuery(`SELECT id, lot_id, spot_number, status FROM parking_spots.+ORDER BY spot_number ASC LIMIT 1 FOR UPDATE`).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "lot_id", "spot_number", "status"}).
            AddRow(41, 3, 2, "A"))
    mock.ExpectExec(`UPDATE parking_spots SET status = 'O' WHERE id = \? AND status = 'A'`).
        WithArgs(uint64(41)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`INSERT INTO reservations`).
        WillReturnResult(sqlmock.NewResult(99, 1))
    mock.ExpectCommit()

    rec, spot, err := svc.Reserve(context.Background(), 7, 3, "KA-01-1234")
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    if rec.ID != 99 {
        t.Fatalf("reservation id = %d, want 99", rec.ID)
    }
    if spot.ID != 41 || spot.SpotNumber != 2 {
        t.Fatalf("unexpected spot: %+v", spot)
    }
    if rec.ParkingCost != 12.5 || rec.TotalHours != 1.0 {
        t.Fatalf("initial pricing wrong: cost=%v hours=%v", rec.ParkingCost, rec.TotalHours)
    }
    if cache.invalidations != 1 {
        t.Fatalf("cache invalidations = %d, want 1", cache.invalidations)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

func TestReserveRejectsSecondActiveReservation(t *testing.T) {
    svc, mock, cache := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM reservations WHERE user_id = \? AND status = 'active'`).
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))
    mock.ExpectRollback()

    _, _, err := svc.Reserve(context.Background(), 7, 3, "KA-01-1234")
    if !errors.Is(err, repository.ErrActiveReservationExists) {
        t.Fatalf("err = %v, want ErrActiveReservationExists", err)
    }
    if cache.invalidations != 0 {
        t.Fatalf("cache invalidated on failed reserve")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

func TestReserveFullLot(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM reservations WHERE user_id = \?`).
        WithArgs(uint64(7)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(`SELECT id, prime_location_name, price`).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "prime_location_name", "price", "address", "pin_code", "number_of_spots", "created_at"}).
            AddRow(3, "Central", 12.5, "1 Main St", "10001", 20, time.Now()))
    mock.ExpectQuery(`SELECT id, lot_id, spot_number, status FROM parking_spots`).
        WithArgs(uint64(3)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    _, _, err := svc.Reserve(context.Background(), 7, 3, "KA-01-1234")
    if !errors.Is(err, repository.ErrNoAvailableSpot) {
        t.Fatalf("err = %v, want ErrNoAvailableSpot", err)
    }
}

func TestReserveUnknownLot(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM reservations WHERE user_id = \?`).
        WithArgs(uint64(7)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectQuery(`SELECT id, prime_location_name, price`).
        WithArgs(uint64(999)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    _, _, err := svc.Reserve(context.Background(), 7, 999, "KA-01-1234")
    if !errors.Is(err, repository.ErrLotNotFound) {
        t.Fatalf("err = %v, want ErrLotNotFound", err)
    }
}

func releaseInfoRows(userID uint64, status string, parked time.Time, rate float64) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "spot_id", "lot_id", "status", "parking_timestamp", "hourly_rate"}).
        AddRow(12, userID, 41, 3, status, parked, rate)
}

func TestReleaseComputesFinalCost(t *testing.T) {
    svc, mock, cache := newTestService(t)
    parked := time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC) // 2.5h before the fixed now

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT r\.id, r\.user_id, r\.spot_id, s\.lot_id, r\.status, r\.parking_timestamp, r\.hourly_rate`).
        WithArgs(uint64(12)).
        WillReturnRows(releaseInfoRows(7, "active", parked, 10))
    mock.ExpectExec(`UPDATE reservations\s+SET leaving_timestamp = \?, parking_cost = \?, total_hours = \?, cost_breakdown = \?, status = 'completed'`).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`UPDATE parking_spots SET status = 'A' WHERE id = \?`).
        WithArgs(uint64(41)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    res, err := svc.Release(context.Background(), 7, 12)
    if err != nil {
        t.Fatalf("Release: %v", err)
    }
    // 1h base at 10 plus 1.5h additional = 25.00
    if res.Breakdown.TotalCost != 25 {
        t.Fatalf("total cost = %v, want 25", res.Breakdown.TotalCost)
    }
    if res.Breakdown.TotalHours != 2.5 {
        t.Fatalf("total hours = %v, want 2.5", res.Breakdown.TotalHours)
    }
    if cache.invalidations != 1 {
        t.Fatalf("cache invalidations = %d, want 1", cache.invalidations)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

func TestReleaseTwiceFails(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT r\.id, r\.user_id`).
        WithArgs(uint64(12)).
        WillReturnRows(releaseInfoRows(7, "completed", time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC), 10))
    mock.ExpectRollback()

    _, err := svc.Release(context.Background(), 7, 12)
    if !errors.Is(err, repository.ErrAlreadyReleased) {
        t.Fatalf("err = %v, want ErrAlreadyReleased", err)
    }
}

func TestReleaseByNonOwnerForbidden(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT r\.id, r\.user_id`).
        WithArgs(uint64(12)).
        WillReturnRows(releaseInfoRows(7, "active", time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC), 10))
    mock.ExpectRollback()

    _, err := svc.Release(context.Background(), 8, 12)
    if !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }
}

// infoRows mirrors GetInfo's column set, which unlike the locking
// variant also carries the stored breakdown JSON.
func infoRows(userID uint64, status string, parked time.Time, rate float64, breakdown any) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "spot_id", "lot_id", "status", "parking_timestamp", "hourly_rate", "cost_breakdown"}).
        AddRow(12, userID, 41, 3, status, parked, rate, breakdown)
}

func TestLiveCostOwnerOnly(t *testing.T) {
    svc, mock, _ := newTestService(t)
    parked := time.Date(2025, 6, 1, 9, 45, 0, 0, time.UTC)

    mock.ExpectQuery(`SELECT r\.id, r\.user_id`).
        WithArgs(uint64(12)).
        WillReturnRows(infoRows(7, "active", parked, 12.5, nil))

    bd, err := svc.LiveCost(context.Background(), 7, 12, false)
    if err != nil {
        t.Fatalf("LiveCost: %v", err)
    }
    // 15 minutes in, still within the one-hour minimum
    if bd.TotalCost != 12.5 {
        t.Fatalf("total cost = %v, want 12.5", bd.TotalCost)
    }

    mock.ExpectQuery(`SELECT r\.id, r\.user_id`).
        WithArgs(uint64(12)).
        WillReturnRows(infoRows(7, "active", parked, 12.5, nil))

    if _, err := svc.LiveCost(context.Background(), 8, 12, false); !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }
}

func TestLiveCostCompletedReturnsStoredBreakdown(t *testing.T) {
    svc, mock, _ := newTestService(t)
    // Parked at 07:00, released after one hour; the fixed clock sits at
    // 10:00, so a recomputation would wrongly triple the bill.
    parked := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
    stored := `{"base_cost":10,"hourly_rate":10,"total_hours":1,"additional_hours":0,"additional_cost":0,"total_cost":10}`

    mock.ExpectQuery(`SELECT r\.id, r\.user_id`).
        WithArgs(uint64(12)).
        WillReturnRows(infoRows(7, "completed", parked, 10, stored))

    bd, err := svc.LiveCost(context.Background(), 7, 12, false)
    if err != nil {
        t.Fatalf("LiveCost: %v", err)
    }
    if bd.TotalCost != 10 {
        t.Fatalf("total cost = %v, want stored 10", bd.TotalCost)
    }
    if bd.TotalHours != 1 {
        t.Fatalf("total hours = %v, want stored 1", bd.TotalHours)
    }
}

func activeDetailRows(parked time.Time, rate float64) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "prime_location_name", "spot_number", "vehicle_number",
        "parking_timestamp", "leaving_timestamp", "parking_cost", "status", "hourly_rate", "cost_breakdown"}).
        AddRow(12, "Central", 2, "KA-01-1234", parked, nil, nil, "active", rate, nil)
}

func TestListByUserRepricesActiveRows(t *testing.T) {
    svc, mock, _ := newTestService(t)
    parked := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

    mock.ExpectQuery(`SELECT r\.id, l\.prime_location_name`).
        WithArgs(uint64(7)).
        WillReturnRows(activeDetailRows(parked, 10))

    first, err := svc.ListByUser(context.Background(), 7)
    if err != nil {
        t.Fatalf("ListByUser: %v", err)
    }
    if len(first) != 1 {
        t.Fatalf("got %d reservations, want 1", len(first))
    }

    // Two hours later the same active reservation must price higher.
    svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
    mock.ExpectQuery(`SELECT r\.id, l\.prime_location_name`).
        WithArgs(uint64(7)).
        WillReturnRows(activeDetailRows(parked, 10))

    second, err := svc.ListByUser(context.Background(), 7)
    if err != nil {
        t.Fatalf("ListByUser: %v", err)
    }
    if second[0].CostBreakdown.TotalCost <= first[0].CostBreakdown.TotalCost {
        t.Fatalf("running total did not grow: first=%v second=%v",
            first[0].CostBreakdown.TotalCost, second[0].CostBreakdown.TotalCost)
    }
    if first[0].CostBreakdown.TotalHours != 3 || second[0].CostBreakdown.TotalHours != 5 {
        t.Fatalf("hours = %v then %v, want 3 then 5",
            first[0].CostBreakdown.TotalHours, second[0].CostBreakdown.TotalHours)
    }
}
