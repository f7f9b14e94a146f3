package repository

import (
    "context"
    "database/sql"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/mfarhadi/parkwise/internal/model"
)

func newMockSpotRepo(t *testing.T) (*SpotRepo, *sql.DB, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewSpotRepo(db), db, mock
}

func TestClaimAvailableClaimsAndOccupies(t *testing.T) {
    repo, db, mock := newMockSpotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, lot_id, spot_number, status FROM parking_spots.+ORDER BY spot_number ASC LIMIT 1 FOR UPDATE`).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "lot_id", "spot_number", "status"}).
            AddRow(41, 3, 2, "A"))
    mock.ExpectExec(`UPDATE parking_spots SET status = 'O' WHERE id = \? AND status = 'A'`).
        WithArgs(uint64(41)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    spot, err := repo.ClaimAvailableTx(context.Background(), tx, 3)
    if err != nil {
        t.Fatalf("ClaimAvailableTx: %v", err)
    }
    if spot.ID != 41 || spot.SpotNumber != 2 {
        t.Fatalf("unexpected spot: %+v", spot)
    }
    if spot.Status != model.SpotOccupied {
        t.Fatalf("status = %q, want occupied", spot.Status)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

// A concurrent transaction can flip the selected spot between our SELECT
// and the conditional UPDATE. Zero affected rows must surface as
// ErrNoAvailableSpot, not a silent success.
func TestClaimAvailableLostRace(t *testing.T) {
    repo, db, mock := newMockSpotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, lot_id, spot_number, status FROM parking_spots.+ORDER BY spot_number ASC LIMIT 1 FOR UPDATE`).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "lot_id", "spot_number", "status"}).
            AddRow(41, 3, 2, "A"))
    mock.ExpectExec(`UPDATE parking_spots SET status = 'O' WHERE id = \? AND status = 'A'`).
        WithArgs(uint64(41)).
        WillReturnResult(sqlmock.NewResult(0, 0))

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    if _, err := repo.ClaimAvailableTx(context.Background(), tx, 3); !errors.Is(err, ErrNoAvailableSpot) {
        t.Fatalf("err = %v, want ErrNoAvailableSpot", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}
