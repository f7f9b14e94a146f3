package repository

import (
    "context"
    "database/sql"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/mfarhadi/parkwise/internal/model"
)

func newMockLotRepo(t *testing.T) (*LotRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewLotRepo(db), mock
}

func TestLotCreateGeneratesSpots(t *testing.T) {
    repo, mock := newMockLotRepo(t)

    mock.ExpectBegin()
    mock.ExpectExec(`INSERT INTO parking_lots`).
        WithArgs("Central", 12.5, "1 Main St", "10001", 3).
        WillReturnResult(sqlmock.NewResult(5, 1))
    mock.ExpectExec(`INSERT INTO parking_spots \(lot_id, spot_number, status\) VALUES`).
        WithArgs(uint64(5), 1, uint64(5), 2, uint64(5), 3).
        WillReturnResult(sqlmock.NewResult(0, 3))
    mock.ExpectCommit()

    lot := &model.ParkingLot{PrimeLocationName: "Central", Price: 12.5, Address: "1 Main St", PinCode: "10001", NumberOfSpots: 3}
    if err := repo.Create(context.Background(), lot); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if lot.ID != 5 {
        t.Fatalf("lot id = %d, want 5", lot.ID)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

func TestLotShrinkBlockedByOccupiedSpot(t *testing.T) {
    repo, mock := newMockLotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT number_of_spots FROM parking_lots WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"number_of_spots"}).AddRow(10))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parking_spots WHERE lot_id = \? AND spot_number > \? AND status = 'O'`).
        WithArgs(uint64(5), 4).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
    mock.ExpectRollback()

    lot := model.ParkingLot{ID: 5, PrimeLocationName: "Central", Price: 12.5, NumberOfSpots: 4}
    if err := repo.Update(context.Background(), lot); !errors.Is(err, ErrConflict) {
        t.Fatalf("err = %v, want ErrConflict", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

func TestLotShrinkRemovesTrailingSpots(t *testing.T) {
    repo, mock := newMockLotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT number_of_spots FROM parking_lots WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"number_of_spots"}).AddRow(10))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parking_spots WHERE lot_id = \? AND spot_number > \? AND status = 'O'`).
        WithArgs(uint64(5), 4).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
    mock.ExpectExec(`DELETE FROM reservations WHERE spot_id IN`).
        WithArgs(uint64(5), 4).
        WillReturnResult(sqlmock.NewResult(0, 3))
    mock.ExpectExec(`DELETE FROM parking_spots WHERE lot_id = \? AND spot_number > \?`).
        WithArgs(uint64(5), 4).
        WillReturnResult(sqlmock.NewResult(0, 6))
    mock.ExpectExec(`UPDATE parking_lots SET`).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    lot := model.ParkingLot{ID: 5, PrimeLocationName: "Central", Price: 12.5, NumberOfSpots: 4}
    if err := repo.Update(context.Background(), lot); err != nil {
        t.Fatalf("Update: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}

func TestLotDeleteBlockedWhileOccupied(t *testing.T) {
    repo, mock := newMockLotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM parking_lots WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parking_spots WHERE lot_id = \? AND status = 'O'`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
    mock.ExpectRollback()

    if err := repo.Delete(context.Background(), 5); !errors.Is(err, ErrConflict) {
        t.Fatalf("err = %v, want ErrConflict", err)
    }
}

func TestLotDeleteUnknown(t *testing.T) {
    repo, mock := newMockLotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM parking_lots WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(99)).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    if err := repo.Delete(context.Background(), 99); !errors.Is(err, sql.ErrNoRows) {
        t.Fatalf("err = %v, want sql.ErrNoRows", err)
    }
}

func TestLotDeleteCascades(t *testing.T) {
    repo, mock := newMockLotRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id FROM parking_lots WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parking_spots WHERE lot_id = \? AND status = 'O'`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
    mock.ExpectExec(`DELETE FROM reservations WHERE spot_id IN`).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 8))
    mock.ExpectExec(`DELETE FROM parking_spots WHERE lot_id = \?`).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 10))
    mock.ExpectExec(`DELETE FROM parking_lots WHERE id = \?`).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    if err := repo.Delete(context.Background(), 5); err != nil {
        t.Fatalf("Delete: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("expectations: %v", err)
    }
}
